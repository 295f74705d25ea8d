package http11

import (
	"bytes"
	"testing"
)

func TestNoCompressionRoundTrip(t *testing.T) {
	c := NewNoCompression()
	input := []byte("hello world")
	output := make([]byte, len(input))
	status, err := c.Compress(input, output)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if status.State != StatusContinue || status.Consumed != len(input) || status.Produced != len(input) {
		t.Fatalf("status = %+v", status)
	}
	fstatus, err := c.Finish(nil)
	if err != nil || fstatus.State != StatusComplete {
		t.Fatalf("Finish: status=%+v err=%v", fstatus, err)
	}
	if !bytes.Equal(output, input) {
		t.Errorf("output = %q, want %q", output, input)
	}
}

func TestNoCompressionAlreadyFinished(t *testing.T) {
	c := NewNoCompression()
	if _, err := c.Finish(nil); err != nil {
		t.Fatalf("first Finish: %v", err)
	}
	if _, err := c.Finish(nil); err != errAlreadyFinishedCompression {
		t.Errorf("second Finish = %v, want errAlreadyFinishedCompression", err)
	}
	if _, err := c.Compress(nil, nil); err != errAlreadyFinishedCompression {
		t.Errorf("Compress after Finish = %v, want errAlreadyFinishedCompression", err)
	}
}

func TestNoCompressionResetAllowsReuse(t *testing.T) {
	c := NewNoCompression()
	c.Finish(nil)
	c.Reset()
	if _, err := c.Compress([]byte("x"), make([]byte, 1)); err != nil {
		t.Errorf("Compress after Reset failed: %v", err)
	}
}

// compressAll drives a Compressor to completion over a single input
// buffer, assuming output is large enough that no OutputFull occurs.
func compressAll(t *testing.T, c Compressor, input []byte) []byte {
	t.Helper()
	var result []byte
	buf := make([]byte, 4096)
	status, err := c.Compress(input, buf)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	result = append(result, buf[:status.Produced]...)
	for status.State == StatusOutputFull {
		status, err = c.Compress(nil, buf)
		if err != nil {
			t.Fatalf("Compress drain: %v", err)
		}
		result = append(result, buf[:status.Produced]...)
	}
	for {
		status, err = c.Finish(buf)
		if err != nil {
			t.Fatalf("Finish: %v", err)
		}
		result = append(result, buf[:status.Produced]...)
		if status.State == StatusComplete {
			break
		}
	}
	return result
}

// decompressAll drives a Decompressor to completion given the full
// compressed payload in one shot.
func decompressAll(t *testing.T, d Decompressor, compressed []byte) []byte {
	t.Helper()
	buf := make([]byte, 4096)
	var result []byte
	status, err := d.Decompress(compressed, buf)
	if err != nil {
		t.Fatalf("Decompress feed: %v", err)
	}
	if status.Consumed != len(compressed) {
		t.Fatalf("Decompress feed consumed %d, want %d", status.Consumed, len(compressed))
	}
	for status.State != StatusComplete {
		status, err = d.Decompress(nil, buf)
		if err != nil {
			t.Fatalf("Decompress drain: %v", err)
		}
		result = append(result, buf[:status.Produced]...)
	}
	return result
}

func TestGzipRoundTrip(t *testing.T) {
	c, err := NewGzipCompressor()
	if err != nil {
		t.Fatalf("NewGzipCompressor: %v", err)
	}
	input := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 20)
	compressed := compressAll(t, c, input)

	dec := NewGzipDecompressor()
	got := decompressAll(t, dec, compressed)
	if !bytes.Equal(got, input) {
		t.Errorf("gzip round trip mismatch: got %d bytes, want %d", len(got), len(input))
	}
}

func TestGzipCompressorWithLevelOption(t *testing.T) {
	c, err := NewGzipCompressor(WithCompressionLevel(LevelBest))
	if err != nil {
		t.Fatalf("NewGzipCompressor: %v", err)
	}
	input := []byte("option-configured compressor")
	compressed := compressAll(t, c, input)
	dec := NewGzipDecompressor()
	got := decompressAll(t, dec, compressed)
	if !bytes.Equal(got, input) {
		t.Errorf("round trip with WithCompressionLevel mismatch")
	}
}

func TestDeflateRoundTrip(t *testing.T) {
	c, err := NewDeflateCompressor()
	if err != nil {
		t.Fatalf("NewDeflateCompressor: %v", err)
	}
	input := []byte("deflate stream contents, repeated repeated repeated")
	compressed := compressAll(t, c, input)

	dec := NewDeflateDecompressor()
	got := decompressAll(t, dec, compressed)
	if !bytes.Equal(got, input) {
		t.Errorf("deflate round trip mismatch")
	}
}

func TestZstdRoundTrip(t *testing.T) {
	c, err := NewZstdCompressor(WithWindowSize(1 << 20))
	if err != nil {
		t.Fatalf("NewZstdCompressor: %v", err)
	}
	input := []byte("zstd stream contents, repeated repeated repeated")
	compressed := compressAll(t, c, input)

	dec := NewZstdDecompressor()
	got := decompressAll(t, dec, compressed)
	if !bytes.Equal(got, input) {
		t.Errorf("zstd round trip mismatch")
	}
}

func TestBrotliRoundTrip(t *testing.T) {
	c := NewBrotliCompressor()
	input := []byte("brotli stream contents, repeated repeated repeated")
	compressed := compressAll(t, c, input)

	dec := NewBrotliDecompressor()
	got := decompressAll(t, dec, compressed)
	if !bytes.Equal(got, input) {
		t.Errorf("brotli round trip mismatch")
	}
}

func TestWriterCompressorResetAllowsReuse(t *testing.T) {
	c, err := NewGzipCompressor()
	if err != nil {
		t.Fatalf("NewGzipCompressor: %v", err)
	}
	first := compressAll(t, c, []byte("first message"))
	c.Reset()
	second := compressAll(t, c, []byte("second message"))

	dec := NewGzipDecompressor()
	got := decompressAll(t, dec, first)
	if string(got) != "first message" {
		t.Errorf("first message round trip = %q", got)
	}
	dec.Reset()
	got = decompressAll(t, dec, second)
	if string(got) != "second message" {
		t.Errorf("second message round trip after Reset = %q", got)
	}
}
