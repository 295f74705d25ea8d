package http11

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/bytebufferpool"
)

// CompressionLevel is a codec-neutral compression level; each codec maps
// it onto its own library's level type in its constructor.
type CompressionLevel int

const (
	LevelFastest CompressionLevel = iota
	LevelDefault
	LevelBest
)

// compressorOptions collects the functional options a codec constructor
// accepts, in the fasthttp/klauspost ecosystem idiom of small option
// structs built via With* constructors rather than positional parameters.
type compressorOptions struct {
	level      CompressionLevel
	windowSize int
}

// CompressorOption configures a Compressor constructor.
type CompressorOption func(*compressorOptions)

// WithCompressionLevel sets the codec's compression level. Applies to
// every codec in this file.
func WithCompressionLevel(level CompressionLevel) CompressorOption {
	return func(o *compressorOptions) { o.level = level }
}

// WithWindowSize sets the codec's match window in bytes. Only zstd exposes
// a configurable window (via zstd.WithWindowSize); gzip and deflate use
// DEFLATE's fixed 32 KiB window and brotli derives its window from quality,
// so this option is a no-op for those three codecs.
func WithWindowSize(bytes int) CompressorOption {
	return func(o *compressorOptions) { o.windowSize = bytes }
}

func buildCompressorOptions(opts []CompressorOption) compressorOptions {
	o := compressorOptions{level: LevelDefault}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// outputQueue buffers codec output that did not fit in a caller-supplied
// slice on a previous call, so the next Compress/Decompress call can
// resume draining it before accepting more input.
type outputQueue struct {
	buf *bytebufferpool.ByteBuffer
	pos int
}

func newOutputQueue() outputQueue {
	return outputQueue{buf: bytebufferpool.Get()}
}

func (q *outputQueue) write(p []byte) { q.buf.Write(p) }

func (q *outputQueue) drain(dst []byte) int {
	n := copy(dst, q.buf.B[q.pos:])
	q.pos += n
	if q.pos == len(q.buf.B) {
		q.buf.Reset()
		q.pos = 0
	}
	return n
}

func (q *outputQueue) pending() int { return len(q.buf.B) - q.pos }

func (q *outputQueue) release() { bytebufferpool.Put(q.buf) }

// streamWriter is the subset of gzip.Writer/flate.Writer/zstd.Encoder/
// brotli.Writer used by writerCompressor.
type streamWriter interface {
	io.WriteCloser
	Flush() error
}

// writerCompressor adapts a push-model io.Writer-based compressor (every
// codec below but brotli, which is adapted directly since its Writer has
// no Reset) onto the pull-model Compressor contract: input is written
// through to the codec immediately and flushed, and whatever compressed
// bytes come out are queued for the caller to drain across as many
// Compress/Finish calls as its output buffer requires.
type writerCompressor struct {
	w        streamWriter
	out      outputQueue
	finished bool
	resetFn  func(io.Writer) streamWriter
}

func (c *writerCompressor) Compress(input, output []byte) (CompressionStatus, error) {
	if c.finished {
		return CompressionStatus{}, errAlreadyFinishedCompression
	}
	consumed := 0
	if c.out.pending() == 0 && len(input) > 0 {
		if _, err := c.w.Write(input); err != nil {
			return CompressionStatus{}, internalCompressionErr(err)
		}
		if err := c.w.Flush(); err != nil {
			return CompressionStatus{}, internalCompressionErr(err)
		}
		consumed = len(input)
	}
	produced := c.out.drain(output)
	if c.out.pending() > 0 {
		return CompressionStatus{State: StatusOutputFull, Consumed: consumed, Produced: produced}, nil
	}
	return CompressionStatus{State: StatusContinue, Consumed: consumed, Produced: produced}, nil
}

func (c *writerCompressor) Finish(output []byte) (CompressionStatus, error) {
	if c.finished {
		return CompressionStatus{}, errAlreadyFinishedCompression
	}
	if c.out.pending() == 0 {
		if err := c.w.Close(); err != nil {
			return CompressionStatus{}, internalCompressionErr(err)
		}
	}
	produced := c.out.drain(output)
	if c.out.pending() > 0 {
		return CompressionStatus{State: StatusOutputFull, Produced: produced}, nil
	}
	c.finished = true
	return CompressionStatus{State: StatusComplete, Produced: produced}, nil
}

func (c *writerCompressor) Reset() {
	c.out.buf.Reset()
	c.out.pos = 0
	c.finished = false
	c.w = c.resetFn(c.out.buf)
}

// bufferedDecompressor adapts a pull-model io.Reader-based decoder onto
// the Decompressor contract by accumulating fed input and only invoking
// the codec once the caller signals end-of-stream with an empty
// Decompress call, matching the convention NoCompression.Decompress
// already establishes for its own identity case.
type bufferedDecompressor struct {
	accumulated *bytebufferpool.ByteBuffer
	out         outputQueue
	decodeFn    func([]byte) ([]byte, error)
	finished    bool
}

func newBufferedDecompressor(decodeFn func([]byte) ([]byte, error)) *bufferedDecompressor {
	return &bufferedDecompressor{
		accumulated: bytebufferpool.Get(),
		out:         newOutputQueue(),
		decodeFn:    decodeFn,
	}
}

func (d *bufferedDecompressor) Decompress(input, output []byte) (CompressionStatus, error) {
	if d.finished {
		return CompressionStatus{}, errAlreadyFinishedCompression
	}
	if d.out.pending() == 0 {
		if len(input) > 0 {
			d.accumulated.Write(input)
			return CompressionStatus{State: StatusContinue, Consumed: len(input)}, nil
		}
		decoded, err := d.decodeFn(d.accumulated.B)
		if err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return CompressionStatus{}, errUnexpectedEOFCompression
			}
			return CompressionStatus{}, invalidCompressedData("%s", err)
		}
		d.out.write(decoded)
	}
	produced := d.out.drain(output)
	if d.out.pending() > 0 {
		return CompressionStatus{State: StatusOutputFull, Produced: produced}, nil
	}
	d.finished = true
	return CompressionStatus{State: StatusComplete, Produced: produced}, nil
}

func (d *bufferedDecompressor) Reset() {
	d.accumulated.Reset()
	d.out.buf.Reset()
	d.out.pos = 0
	d.finished = false
}

// --- gzip ---

func gzipLevel(level CompressionLevel) int {
	switch level {
	case LevelFastest:
		return gzip.BestSpeed
	case LevelBest:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

// NewGzipCompressor returns a Compressor producing a gzip (RFC 1952)
// stream. WithCompressionLevel configures it; WithWindowSize is a no-op
// since DEFLATE's window is fixed at 32 KiB.
func NewGzipCompressor(opts ...CompressorOption) (Compressor, error) {
	o := buildCompressorOptions(opts)
	out := newOutputQueue()
	w, err := gzip.NewWriterLevel(out.buf, gzipLevel(o.level))
	if err != nil {
		out.release()
		return nil, err
	}
	lvl := gzipLevel(o.level)
	return &writerCompressor{
		w:   w,
		out: out,
		resetFn: func(dst io.Writer) streamWriter {
			nw, _ := gzip.NewWriterLevel(dst, lvl)
			return nw
		},
	}, nil
}

// NewGzipDecompressor returns a Decompressor for a gzip stream.
func NewGzipDecompressor() Decompressor {
	return newBufferedDecompressor(func(data []byte) ([]byte, error) {
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	})
}

// --- deflate ---

func deflateLevel(level CompressionLevel) int {
	switch level {
	case LevelFastest:
		return flate.BestSpeed
	case LevelBest:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}

// NewDeflateCompressor returns a Compressor producing a raw DEFLATE
// (RFC 1951) stream. WithCompressionLevel configures it; WithWindowSize is
// a no-op since DEFLATE's window is fixed at 32 KiB.
func NewDeflateCompressor(opts ...CompressorOption) (Compressor, error) {
	o := buildCompressorOptions(opts)
	out := newOutputQueue()
	w, err := flate.NewWriter(out.buf, deflateLevel(o.level))
	if err != nil {
		out.release()
		return nil, err
	}
	lvl := deflateLevel(o.level)
	return &writerCompressor{
		w:   w,
		out: out,
		resetFn: func(dst io.Writer) streamWriter {
			nw, _ := flate.NewWriter(dst, lvl)
			return nw
		},
	}, nil
}

// NewDeflateDecompressor returns a Decompressor for a raw DEFLATE stream.
func NewDeflateDecompressor() Decompressor {
	return newBufferedDecompressor(func(data []byte) ([]byte, error) {
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		return io.ReadAll(r)
	})
}

// --- zstd ---

func zstdLevel(level CompressionLevel) zstd.EncoderLevel {
	switch level {
	case LevelFastest:
		return zstd.SpeedFastest
	case LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// NewZstdCompressor returns a Compressor producing a zstd stream.
// WithCompressionLevel and WithWindowSize (zstd.WithWindowSize) both
// configure it.
func NewZstdCompressor(opts ...CompressorOption) (Compressor, error) {
	o := buildCompressorOptions(opts)
	zstdOpts := []zstd.EOption{zstd.WithEncoderLevel(zstdLevel(o.level))}
	if o.windowSize > 0 {
		zstdOpts = append(zstdOpts, zstd.WithWindowSize(o.windowSize))
	}
	out := newOutputQueue()
	w, err := zstd.NewWriter(out.buf, zstdOpts...)
	if err != nil {
		out.release()
		return nil, err
	}
	return &writerCompressor{
		w:   w,
		out: out,
		resetFn: func(dst io.Writer) streamWriter {
			nw, _ := zstd.NewWriter(dst, zstdOpts...)
			return nw
		},
	}, nil
}

// NewZstdDecompressor returns a Decompressor for a zstd stream.
func NewZstdDecompressor() Decompressor {
	return newBufferedDecompressor(func(data []byte) ([]byte, error) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	})
}

// --- brotli ---

func brotliQuality(level CompressionLevel) int {
	switch level {
	case LevelFastest:
		return 0
	case LevelBest:
		return 11
	default:
		return 6
	}
}

// brotliCompressor wraps andybalholm/brotli.Writer directly rather than
// through writerCompressor, since brotli.Writer has no Reset method; a
// fresh Writer is allocated each Reset instead.
type brotliCompressor struct {
	w        *brotli.Writer
	out      outputQueue
	quality  int
	finished bool
}

// NewBrotliCompressor returns a Compressor producing a brotli stream.
// WithCompressionLevel configures it; WithWindowSize is a no-op since
// brotli derives its window from quality rather than a separate parameter.
func NewBrotliCompressor(opts ...CompressorOption) Compressor {
	o := buildCompressorOptions(opts)
	out := newOutputQueue()
	q := brotliQuality(o.level)
	return &brotliCompressor{
		w:       brotli.NewWriterLevel(out.buf, q),
		out:     out,
		quality: q,
	}
}

func (c *brotliCompressor) Compress(input, output []byte) (CompressionStatus, error) {
	if c.finished {
		return CompressionStatus{}, errAlreadyFinishedCompression
	}
	consumed := 0
	if c.out.pending() == 0 && len(input) > 0 {
		if _, err := c.w.Write(input); err != nil {
			return CompressionStatus{}, internalCompressionErr(err)
		}
		if err := c.w.Flush(); err != nil {
			return CompressionStatus{}, internalCompressionErr(err)
		}
		consumed = len(input)
	}
	produced := c.out.drain(output)
	if c.out.pending() > 0 {
		return CompressionStatus{State: StatusOutputFull, Consumed: consumed, Produced: produced}, nil
	}
	return CompressionStatus{State: StatusContinue, Consumed: consumed, Produced: produced}, nil
}

func (c *brotliCompressor) Finish(output []byte) (CompressionStatus, error) {
	if c.finished {
		return CompressionStatus{}, errAlreadyFinishedCompression
	}
	if c.out.pending() == 0 {
		if err := c.w.Close(); err != nil {
			return CompressionStatus{}, internalCompressionErr(err)
		}
	}
	produced := c.out.drain(output)
	if c.out.pending() > 0 {
		return CompressionStatus{State: StatusOutputFull, Produced: produced}, nil
	}
	c.finished = true
	return CompressionStatus{State: StatusComplete, Produced: produced}, nil
}

func (c *brotliCompressor) Reset() {
	c.out.buf.Reset()
	c.out.pos = 0
	c.finished = false
	c.w = brotli.NewWriterLevel(c.out.buf, c.quality)
}

// NewBrotliDecompressor returns a Decompressor for a brotli stream.
func NewBrotliDecompressor() Decompressor {
	return newBufferedDecompressor(func(data []byte) ([]byte, error) {
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	})
}
