package http11

// decodePhase is the single tagged state a Decoder occupies. Phases that
// carry a payload (the two BodyContentLength/BodyChunkedData phases) keep
// their "remaining" count alongside the phase tag in decodeState rather
// than as distinct Go types, so that transitions are a single field
// assignment and cannot desynchronize the tag from its payload.
type decodePhase int

const (
	phaseStartLine decodePhase = iota
	phaseHeaders
	phaseBodyContentLength
	phaseBodyChunkedSize
	phaseBodyChunkedData
	phaseBodyChunkedDataCRLF
	phaseChunkedTrailer
	phaseBodyCloseDelimited
	phaseTunnel
	phaseComplete
)

func (p decodePhase) String() string {
	switch p {
	case phaseStartLine:
		return "StartLine"
	case phaseHeaders:
		return "Headers"
	case phaseBodyContentLength:
		return "BodyContentLength"
	case phaseBodyChunkedSize:
		return "BodyChunkedSize"
	case phaseBodyChunkedData:
		return "BodyChunkedData"
	case phaseBodyChunkedDataCRLF:
		return "BodyChunkedDataCrlf"
	case phaseChunkedTrailer:
		return "ChunkedTrailer"
	case phaseBodyCloseDelimited:
		return "BodyCloseDelimited"
	case phaseTunnel:
		return "Tunnel"
	case phaseComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// decodeState bundles the phase tag with the "remaining" payload carried
// by the two body phases that track a countdown.
type decodeState struct {
	phase     decodePhase
	remaining int
}
