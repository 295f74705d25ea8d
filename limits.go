package http11

import "math"

// Limits bounds the resources a Decoder is willing to consume while
// parsing a single connection's worth of pipelined messages. All fields
// are immutable for the lifetime of a decoder; construct a new Limits and
// pass it to NewRequestDecoder / NewResponseDecoder to change them.
type Limits struct {
	// MaxBufferSize bounds the internal feed buffer (unconsumed input plus
	// any pending head/body bytes).
	MaxBufferSize int

	// MaxHeadersCount bounds the number of headers (or trailers) accepted
	// per message.
	MaxHeadersCount int

	// MaxHeaderLineSize bounds a single header or trailer line, excluding
	// the trailing CRLF.
	MaxHeaderLineSize int

	// MaxChunkLineSize bounds a chunk-size line, excluding the trailing
	// CRLF.
	MaxChunkLineSize int

	// MaxBodySize bounds the declared Content-Length and the cumulative
	// bytes of a chunked or close-delimited body.
	MaxBodySize int
}

// DefaultLimits returns the limits a server should apply to untrusted
// input by default.
func DefaultLimits() Limits {
	return Limits{
		MaxBufferSize:     64 * 1024,
		MaxHeadersCount:   100,
		MaxHeaderLineSize: 8 * 1024,
		MaxChunkLineSize:  1024,
		MaxBodySize:       10 * 1024 * 1024,
	}
}

// UnlimitedLimits returns limits that never trigger, for trusted callers
// that manage their own bounds.
func UnlimitedLimits() Limits {
	return Limits{
		MaxBufferSize:     math.MaxInt,
		MaxHeadersCount:   math.MaxInt,
		MaxHeaderLineSize: math.MaxInt,
		MaxChunkLineSize:  math.MaxInt,
		MaxBodySize:       math.MaxInt,
	}
}

// addChecked adds delta to base and reports whether the result overflowed
// or exceeded limit. On overflow it returns (math.MaxInt, true) so callers
// can report BodyTooLarge{size: MaxInt}.
func addChecked(base, delta, limit int) (int, bool) {
	if delta > 0 && base > math.MaxInt-delta {
		return math.MaxInt, true
	}
	sum := base + delta
	return sum, sum > limit
}
