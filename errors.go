package http11

import (
	"errors"
	"fmt"
)

// Usage errors - pre-allocated for zero runtime allocation, for
// conditions that carry no per-occurrence data.
var (
	// ErrConsumeZero is returned by ConsumeBody(0); a caller that wants
	// to advance the state machine without taking body bytes must call
	// Progress instead.
	ErrConsumeZero = errors.New("http11: consume_body(0) is not allowed, use progress() instead")

	// ErrWrongPhase is returned when a body method is called in a phase
	// that does not expect it (e.g. ConsumeBody during header decoding).
	ErrWrongPhase = errors.New("http11: method called in the wrong decode phase")

	// ErrMixedAPI is returned by Decode on a decoder whose DecodeHeaders
	// has been called, and by DecodeHeaders on a decoder whose Decode has
	// been called; the check covers the decoder's whole life until Reset.
	// PeekBody, ConsumeBody and Progress do not check for mixing.
	ErrMixedAPI = errors.New("http11: decode cannot be mixed with the streaming API")

	// ErrAlreadyFinished describes reuse of a Compressor or Decompressor
	// after it has reported Complete without a Reset. The implementations
	// in this package do not return it; they report that condition as a
	// *CompressionError with Kind CompressionAlreadyFinished.
	ErrAlreadyFinished = errors.New("http11: compressor or decompressor already finished")

	// ErrUnexpectedEOF describes a compression stream that ended before
	// its logical end. The implementations in this package do not return
	// it; they report that condition as a *CompressionError with Kind
	// CompressionUnexpectedEOF.
	ErrUnexpectedEOF = errors.New("http11: unexpected end of compressed stream")
)

// ErrorKind classifies a DecodeError for errors.Is comparisons without
// inspecting the message text.
type ErrorKind int

const (
	// KindInvalidData covers all malformed-syntax conditions: bad request
	// or status line, bad header line, bad method, bad version, bad
	// request-target, conflicting framing headers, bad chunk size, bad
	// trailer line, and API misuse that does not have its own kind.
	KindInvalidData ErrorKind = iota
	// KindBufferOverflow is raised by Feed before appending when the
	// result would exceed MaxBufferSize.
	KindBufferOverflow
	// KindTooManyHeaders is raised before pushing a header or trailer
	// past MaxHeadersCount.
	KindTooManyHeaders
	// KindHeaderLineTooLong is raised before copying a header or trailer
	// line whose length (excluding CRLF) exceeds MaxHeaderLineSize.
	KindHeaderLineTooLong
	// KindChunkLineTooLong is raised before parsing a chunk-size line
	// exceeding MaxChunkLineSize.
	KindChunkLineTooLong
	// KindBodyTooLarge is raised when declared Content-Length, cumulative
	// chunked bytes, or cumulative close-delimited bytes would exceed
	// MaxBodySize. Also used to surface counter overflow, with Size set
	// to math.MaxInt.
	KindBodyTooLarge
	// KindCompression wraps an error from the Compressor/Decompressor
	// contract.
	KindCompression
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidData:
		return "invalid data"
	case KindBufferOverflow:
		return "buffer overflow"
	case KindTooManyHeaders:
		return "too many headers"
	case KindHeaderLineTooLong:
		return "header line too long"
	case KindChunkLineTooLong:
		return "chunk line too long"
	case KindBodyTooLarge:
		return "body too large"
	case KindCompression:
		return "compression error"
	default:
		return "unknown error"
	}
}

// DecodeError is the structured error returned by Feed, DecodeHeaders,
// ConsumeBody, Progress and Decode. Size/Limit/Count are only populated
// for the kinds that carry them; Reason carries the human-readable detail
// for KindInvalidData, and Err wraps the inner cause for KindCompression.
type DecodeError struct {
	Kind   ErrorKind
	Reason string
	Size   int
	Limit  int
	Count  int
	Err    error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindInvalidData:
		return fmt.Sprintf("http11: invalid data: %s", e.Reason)
	case KindBufferOverflow:
		return fmt.Sprintf("http11: buffer overflow: %d > %d", e.Size, e.Limit)
	case KindTooManyHeaders:
		return fmt.Sprintf("http11: too many headers: %d > %d", e.Count, e.Limit)
	case KindHeaderLineTooLong:
		return fmt.Sprintf("http11: header line too long: %d > %d", e.Size, e.Limit)
	case KindChunkLineTooLong:
		return fmt.Sprintf("http11: chunk line too long: %d > %d", e.Size, e.Limit)
	case KindBodyTooLarge:
		return fmt.Sprintf("http11: body too large: %d > %d", e.Size, e.Limit)
	case KindCompression:
		return fmt.Sprintf("http11: compression error: %s", e.Err)
	default:
		return "http11: decode error"
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets callers write errors.Is(err, ErrKind(KindInvalidData)) to test
// the kind without inspecting the field values.
func (e *DecodeError) Is(target error) bool {
	k, ok := target.(kindSentinel)
	return ok && k.kind == e.Kind
}

type kindSentinel struct{ kind ErrorKind }

func (kindSentinel) Error() string { return "" }

// ErrKind returns a sentinel usable with errors.Is to test whether an
// error is a *DecodeError of the given kind, regardless of its fields.
func ErrKind(k ErrorKind) error { return kindSentinel{kind: k} }

func invalidData(format string, args ...any) *DecodeError {
	return &DecodeError{Kind: KindInvalidData, Reason: fmt.Sprintf(format, args...)}
}

func bufferOverflow(size, limit int) *DecodeError {
	return &DecodeError{Kind: KindBufferOverflow, Size: size, Limit: limit}
}

func tooManyHeaders(count, limit int) *DecodeError {
	return &DecodeError{Kind: KindTooManyHeaders, Count: count, Limit: limit}
}

func headerLineTooLong(size, limit int) *DecodeError {
	return &DecodeError{Kind: KindHeaderLineTooLong, Size: size, Limit: limit}
}

func chunkLineTooLong(size, limit int) *DecodeError {
	return &DecodeError{Kind: KindChunkLineTooLong, Size: size, Limit: limit}
}

func bodyTooLarge(size, limit int) *DecodeError {
	return &DecodeError{Kind: KindBodyTooLarge, Size: size, Limit: limit}
}

func compressionErr(err error) *DecodeError {
	return &DecodeError{Kind: KindCompression, Err: err}
}
