package http11

import "fmt"

// CompressionStatus is the outcome of one Compressor/Decompressor call.
type CompressionStatus struct {
	State    CompressionState
	Consumed int
	Produced int
}

// CompressionState tags a CompressionStatus.
type CompressionState int

const (
	// StatusContinue means input was consumed (possibly none, on a
	// Decompressor waiting for more) and the caller should keep feeding.
	StatusContinue CompressionState = iota
	// StatusComplete means the stream has reached its logical end.
	StatusComplete
	// StatusOutputFull means output was exhausted before input; the
	// caller must drain output and call again with the remaining input.
	StatusOutputFull
)

// CompressionErrorKind classifies a CompressionError.
type CompressionErrorKind int

const (
	CompressionBufferTooSmall CompressionErrorKind = iota
	CompressionInvalidData
	CompressionInternal
	CompressionUnexpectedEOF
	CompressionAlreadyFinished
)

// CompressionError is returned by Compressor/Decompressor implementations.
type CompressionError struct {
	Kind      CompressionErrorKind
	Required  int
	Available int
	Message   string
}

func (e *CompressionError) Error() string {
	switch e.Kind {
	case CompressionBufferTooSmall:
		return fmt.Sprintf("buffer too small: required %d bytes, available %d bytes", e.Required, e.Available)
	case CompressionInvalidData:
		return fmt.Sprintf("invalid data: %s", e.Message)
	case CompressionInternal:
		return fmt.Sprintf("internal error: %s", e.Message)
	case CompressionUnexpectedEOF:
		return "unexpected end of input"
	case CompressionAlreadyFinished:
		return "compression already finished"
	default:
		return "compression error"
	}
}

func bufferTooSmallErr(required, available int) *CompressionError {
	return &CompressionError{Kind: CompressionBufferTooSmall, Required: required, Available: available}
}

func invalidCompressedData(format string, args ...any) *CompressionError {
	return &CompressionError{Kind: CompressionInvalidData, Message: fmt.Sprintf(format, args...)}
}

func internalCompressionErr(err error) *CompressionError {
	return &CompressionError{Kind: CompressionInternal, Message: err.Error()}
}

var errAlreadyFinishedCompression = &CompressionError{Kind: CompressionAlreadyFinished}
var errUnexpectedEOFCompression = &CompressionError{Kind: CompressionUnexpectedEOF}

// Compressor is the Sans-I/O contract for a Content-Encoding codec's
// compress side. Compress is called repeatedly with input and a caller
// owned output buffer; Finish flushes any remaining buffered output once
// the input stream ends.
type Compressor interface {
	Compress(input []byte, output []byte) (CompressionStatus, error)
	Finish(output []byte) (CompressionStatus, error)
	Reset()
}

// Decompressor is the Sans-I/O contract for a Content-Encoding codec's
// decompress side.
type Decompressor interface {
	Decompress(input []byte, output []byte) (CompressionStatus, error)
	Reset()
}

// NoCompression implements both Compressor and Decompressor as a
// pass-through, for the identity Content-Encoding or as the default when
// no Content-Encoding is negotiated.
type NoCompression struct {
	finished bool
}

// NewNoCompression returns a ready-to-use identity codec.
func NewNoCompression() *NoCompression { return &NoCompression{} }

func (c *NoCompression) Compress(input, output []byte) (CompressionStatus, error) {
	if c.finished {
		return CompressionStatus{}, errAlreadyFinishedCompression
	}
	n := min(len(input), len(output))
	copy(output[:n], input[:n])
	if n < len(input) {
		return CompressionStatus{State: StatusOutputFull, Consumed: n, Produced: n}, nil
	}
	return CompressionStatus{State: StatusContinue, Consumed: n, Produced: n}, nil
}

func (c *NoCompression) Finish(output []byte) (CompressionStatus, error) {
	if c.finished {
		return CompressionStatus{}, errAlreadyFinishedCompression
	}
	c.finished = true
	return CompressionStatus{State: StatusComplete}, nil
}

func (c *NoCompression) Reset() { c.finished = false }

func (c *NoCompression) Decompress(input, output []byte) (CompressionStatus, error) {
	n := min(len(input), len(output))
	copy(output[:n], input[:n])
	switch {
	case n < len(input):
		return CompressionStatus{State: StatusOutputFull, Consumed: n, Produced: n}, nil
	case len(input) == 0:
		return CompressionStatus{State: StatusComplete}, nil
	default:
		return CompressionStatus{State: StatusContinue, Consumed: n, Produced: n}, nil
	}
}
