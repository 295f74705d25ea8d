package http11

import (
	"bytes"
	"math"
	"strconv"
)

// BodyKindTag classifies how a message body is framed.
type BodyKindTag int

const (
	BodyKindNone BodyKindTag = iota
	BodyKindContentLength
	BodyKindChunked
	BodyKindCloseDelimited
	BodyKindTunnel
)

// BodyKind is the resolved body framing for a message. Length is only
// meaningful when Tag is BodyKindContentLength.
type BodyKind struct {
	Tag    BodyKindTag
	Length int
}

// ProgressStatus is the outcome of ConsumeBody or Progress.
type ProgressStatus int

const (
	ProgressContinue ProgressStatus = iota
	ProgressComplete
)

// BodyProgress reports whether the body has finished; Trailers is only
// populated when Status is ProgressComplete and the body was chunked.
type BodyProgress struct {
	Status   ProgressStatus
	Trailers HeaderList
}

// findCRLF returns the index of the first "\r\n" in buf, or -1.
func findCRLF(buf []byte) int {
	return bytes.Index(buf, []byte("\r\n"))
}

func trimOWS(b []byte) []byte {
	start := 0
	for start < len(b) && (b[start] == ' ' || b[start] == '\t') {
		start++
	}
	end := len(b)
	for end > start && (b[end-1] == ' ' || b[end-1] == '\t') {
		end--
	}
	return b[start:end]
}

func parseHeaderLineBytes(line []byte) (name, value []byte, err error) {
	idx := indexByte(line, ':')
	if idx <= 0 {
		return nil, nil, invalidData("header line missing a field name")
	}
	name = line[:idx]
	if !isValidHeaderName(name) {
		return nil, nil, invalidData("invalid header field name")
	}
	value = trimOWS(line[idx+1:])
	if !isValidFieldValue(value) {
		return nil, nil, invalidData("invalid header field value")
	}
	return name, value, nil
}

// decodeHeaderLines advances buf past every complete header line, adding
// each to headers, until either a blank line (end of the section) is
// consumed or the buffer runs out of complete lines. This is shared
// between the request/response header phase and chunked trailer parsing,
// since both are "field-line* CRLF" sections per RFC 9112.
func decodeHeaderLines(buf *[]byte, headers *HeaderList, limits Limits) (done bool, err error) {
	for {
		pos := findCRLF(*buf)
		if pos < 0 {
			return false, nil
		}
		line := (*buf)[:pos]
		if pos == 0 {
			*buf = (*buf)[2:]
			return true, nil
		}
		if line[0] == ' ' || line[0] == '\t' {
			return false, invalidData("obs-fold line folding is not supported")
		}
		if pos > limits.MaxHeaderLineSize {
			return false, headerLineTooLong(pos, limits.MaxHeaderLineSize)
		}
		if headers.Len() >= limits.MaxHeadersCount {
			return false, tooManyHeaders(headers.Len()+1, limits.MaxHeadersCount)
		}
		name, value, perr := parseHeaderLineBytes(line)
		if perr != nil {
			return false, perr
		}
		if err := headers.Add(name, value); err != nil {
			return false, err
		}
		*buf = (*buf)[pos+2:]
	}
}

// resolveBodyHeaders implements §4.4 rules 1-3: Transfer-Encoding and
// Content-Length cross-validation shared by both decoders. Rules 4-7
// (the response-only no-body cases and the request/response default) are
// applied by the caller.
func resolveBodyHeaders(headers *HeaderList) (chunked bool, contentLength int, hasContentLength bool, err error) {
	teValues := headers.GetAll(headerTransferEncoding)
	chunkedCount := 0
	for _, v := range teValues {
		for _, tok := range splitAndTrimCSV(v) {
			if len(tok) == 0 {
				return false, 0, false, invalidData("empty Transfer-Encoding token")
			}
			if !stringsEqualFold(tok, "chunked") {
				return false, 0, false, invalidData("unsupported transfer-coding %q", tok)
			}
			chunkedCount++
		}
	}
	if chunkedCount > 1 {
		return false, 0, false, invalidData("duplicate chunked transfer-coding")
	}
	chunked = chunkedCount == 1

	clValues := headers.GetAll(headerContentLength)
	if len(clValues) > 0 {
		first := -1
		for _, v := range clValues {
			n, perr := parseContentLengthValue(v)
			if perr != nil {
				return false, 0, false, perr
			}
			if first == -1 {
				first = n
			} else if n != first {
				return false, 0, false, invalidData("duplicate Content-Length headers with different values")
			}
		}
		contentLength = first
		hasContentLength = true
	}

	if chunked && hasContentLength {
		return false, 0, false, invalidData("message has both Content-Length and Transfer-Encoding")
	}
	return chunked, contentLength, hasContentLength, nil
}

func parseContentLengthValue(v string) (int, error) {
	if v == "" {
		return 0, invalidData("empty Content-Length value")
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0, invalidData("invalid Content-Length value %q", v)
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidData("invalid Content-Length value %q", v)
	}
	return n, nil
}

func splitAndTrimCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			tok := strings_TrimSpace(s[start:i])
			out = append(out, tok)
			start = i + 1
		}
	}
	return out
}

func strings_TrimSpace(s string) string {
	start := 0
	for start < len(s) && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	end := len(s)
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

func stringsEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if toLower(a[i]) != toLower(b[i]) {
			return false
		}
	}
	return true
}

// bodyDecoder implements the body-streaming half of §4.5/§4.6, shared by
// RequestDecoder and ResponseDecoder through composition rather than a
// shared base type. It owns only the cumulative consumed counter and the
// trailer accumulator; the phase and "remaining" countdown live in the
// owning decoder's decodeState so that a single field assignment always
// keeps the tag and its payload in sync.
type bodyDecoder struct {
	consumed int
	trailers HeaderList
}

func (bd *bodyDecoder) reset() {
	bd.consumed = 0
	bd.trailers.Reset()
}

func (bd *bodyDecoder) peekBody(buf []byte, st *decodeState) []byte {
	switch st.phase {
	case phaseBodyContentLength, phaseBodyChunkedData:
		n := len(buf)
		if st.remaining < n {
			n = st.remaining
		}
		if n == 0 {
			return nil
		}
		return buf[:n]
	case phaseBodyCloseDelimited, phaseTunnel:
		if len(buf) == 0 {
			return nil
		}
		return buf
	default:
		return nil
	}
}

func (bd *bodyDecoder) consumeBody(buf *[]byte, st *decodeState, length int, limits Limits) (BodyProgress, error) {
	switch st.phase {
	case phaseBodyContentLength:
		return bd.consumeCounted(buf, st, length, limits, phaseComplete)
	case phaseBodyChunkedData:
		if length > 0 {
			if length > len(*buf) || length > st.remaining {
				return BodyProgress{}, ErrWrongPhase
			}
			*buf = (*buf)[length:]
			st.remaining -= length
			consumed, overflow := addChecked(bd.consumed, length, limits.MaxBodySize)
			if overflow {
				return BodyProgress{}, bodyTooLarge(consumed, limits.MaxBodySize)
			}
			bd.consumed = consumed
			if st.remaining == 0 {
				st.phase = phaseBodyChunkedDataCRLF
			}
		}
		return bd.progressChunkedDataCRLF(buf, st)
	case phaseBodyChunkedDataCRLF:
		if length != 0 {
			return BodyProgress{}, ErrWrongPhase
		}
		return bd.progressChunkedDataCRLF(buf, st)
	case phaseBodyChunkedSize:
		if length != 0 {
			return BodyProgress{}, ErrWrongPhase
		}
		return bd.progressChunkedSize(buf, st, limits)
	case phaseChunkedTrailer:
		if length != 0 {
			return BodyProgress{}, ErrWrongPhase
		}
		return bd.progressTrailer(buf, st, limits)
	case phaseBodyCloseDelimited:
		if length > 0 {
			if length > len(*buf) {
				return BodyProgress{}, ErrWrongPhase
			}
			*buf = (*buf)[length:]
			consumed, overflow := addChecked(bd.consumed, length, limits.MaxBodySize)
			if overflow {
				return BodyProgress{}, bodyTooLarge(consumed, limits.MaxBodySize)
			}
			bd.consumed = consumed
		}
		return BodyProgress{Status: ProgressContinue}, nil
	case phaseTunnel:
		// Once a response has switched to tunnel mode, this decoder stops
		// interpreting bytes as framed HTTP; it only hands the remaining
		// buffer back to the caller, which is responsible for relaying it
		// on whatever raw connection carries the tunnel.
		if length > 0 {
			if length > len(*buf) {
				return BodyProgress{}, ErrWrongPhase
			}
			*buf = (*buf)[length:]
		}
		return BodyProgress{Status: ProgressContinue}, nil
	default:
		return BodyProgress{}, ErrWrongPhase
	}
}

func (bd *bodyDecoder) consumeCounted(buf *[]byte, st *decodeState, length int, limits Limits, doneTo decodePhase) (BodyProgress, error) {
	if length > 0 {
		if length > len(*buf) || length > st.remaining {
			return BodyProgress{}, ErrWrongPhase
		}
		*buf = (*buf)[length:]
		st.remaining -= length
		consumed, overflow := addChecked(bd.consumed, length, limits.MaxBodySize)
		if overflow {
			return BodyProgress{}, bodyTooLarge(consumed, limits.MaxBodySize)
		}
		bd.consumed = consumed
		if st.remaining == 0 {
			st.phase = doneTo
			return BodyProgress{Status: ProgressComplete}, nil
		}
	}
	return BodyProgress{Status: ProgressContinue}, nil
}

func (bd *bodyDecoder) progressChunkedDataCRLF(buf *[]byte, st *decodeState) (BodyProgress, error) {
	if st.phase != phaseBodyChunkedDataCRLF {
		return BodyProgress{Status: ProgressContinue}, nil
	}
	if len(*buf) < 2 {
		return BodyProgress{Status: ProgressContinue}, nil
	}
	if (*buf)[0] != '\r' || (*buf)[1] != '\n' {
		return BodyProgress{}, invalidData("chunk data not terminated by CRLF")
	}
	*buf = (*buf)[2:]
	st.phase = phaseBodyChunkedSize
	return BodyProgress{Status: ProgressContinue}, nil
}

func (bd *bodyDecoder) progressChunkedSize(buf *[]byte, st *decodeState, limits Limits) (BodyProgress, error) {
	pos := findCRLF(*buf)
	if pos < 0 {
		if len(*buf) > limits.MaxChunkLineSize {
			return BodyProgress{}, chunkLineTooLong(len(*buf), limits.MaxChunkLineSize)
		}
		return BodyProgress{Status: ProgressContinue}, nil
	}
	if pos > limits.MaxChunkLineSize {
		return BodyProgress{}, chunkLineTooLong(pos, limits.MaxChunkLineSize)
	}
	line := (*buf)[:pos]
	if idx := indexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	line = trimOWS(line)
	if len(line) == 0 {
		return BodyProgress{}, invalidData("empty chunk-size line")
	}
	size := 0
	for _, b := range line {
		var digit int
		switch {
		case b >= '0' && b <= '9':
			digit = int(b - '0')
		case b >= 'a' && b <= 'f':
			digit = int(b-'a') + 10
		case b >= 'A' && b <= 'F':
			digit = int(b-'A') + 10
		default:
			return BodyProgress{}, invalidData("invalid chunk-size digit")
		}
		if size > (math.MaxInt-digit)/16 {
			return BodyProgress{}, bodyTooLarge(math.MaxInt, limits.MaxBodySize)
		}
		size = size*16 + digit
	}
	*buf = (*buf)[pos+2:]

	if size == 0 {
		st.phase = phaseChunkedTrailer
		return bd.progressTrailer(buf, st, limits)
	}
	consumed, overflow := addChecked(bd.consumed, size, limits.MaxBodySize)
	if overflow {
		return BodyProgress{}, bodyTooLarge(consumed, limits.MaxBodySize)
	}
	st.phase = phaseBodyChunkedData
	st.remaining = size
	return BodyProgress{Status: ProgressContinue}, nil
}

func (bd *bodyDecoder) progressTrailer(buf *[]byte, st *decodeState, limits Limits) (BodyProgress, error) {
	done, err := decodeHeaderLines(buf, &bd.trailers, limits)
	if err != nil {
		return BodyProgress{}, err
	}
	if !done {
		return BodyProgress{Status: ProgressContinue}, nil
	}
	st.phase = phaseComplete
	return BodyProgress{Status: ProgressComplete, Trailers: bd.trailers}, nil
}
