package http11

import (
	"bytes"
	"testing"
)

func TestRequestDecoderSimpleGetNoBody(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	raw := "GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n"
	if err := d.Feed([]byte(raw)); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	head, done, err := d.DecodeHeaders()
	if err != nil {
		t.Fatalf("DecodeHeaders: %v", err)
	}
	if !done {
		t.Fatalf("DecodeHeaders not done with full head in buffer")
	}
	if head.Method != "GET" || head.Target != "/index.html" || head.Version != "HTTP/1.1" {
		t.Errorf("head = %+v", head)
	}
	if d.BodyKind().Tag != BodyKindNone {
		t.Errorf("BodyKind = %v, want BodyKindNone", d.BodyKind().Tag)
	}
}

func TestRequestDecoderContentLengthBody(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	raw := "POST /submit HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello"
	if err := d.Feed([]byte(raw)); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if _, done, err := d.DecodeHeaders(); err != nil || !done {
		t.Fatalf("DecodeHeaders: done=%v err=%v", done, err)
	}
	if d.BodyKind().Tag != BodyKindContentLength || d.BodyKind().Length != 5 {
		t.Fatalf("BodyKind = %+v", d.BodyKind())
	}
	body := d.PeekBody()
	if !bytes.Equal(body, []byte("hello")) {
		t.Fatalf("PeekBody = %q, want hello", body)
	}
	progress, err := d.ConsumeBody(len(body))
	if err != nil {
		t.Fatalf("ConsumeBody: %v", err)
	}
	if progress.Status != ProgressComplete {
		t.Errorf("Status = %v, want ProgressComplete", progress.Status)
	}
}

func TestRequestDecoderChunkedBodyAndTrailers(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	raw := "POST /upload HTTP/1.1\r\nHost: example.com\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n0\r\nX-Trailer: done\r\n\r\n"
	if err := d.Feed([]byte(raw)); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if _, done, err := d.DecodeHeaders(); err != nil || !done {
		t.Fatalf("DecodeHeaders: done=%v err=%v", done, err)
	}
	if d.BodyKind().Tag != BodyKindChunked {
		t.Fatalf("BodyKind = %v, want BodyKindChunked", d.BodyKind().Tag)
	}

	var collected []byte
	for {
		body := d.PeekBody()
		if len(body) > 0 {
			collected = append(collected, body...)
			progress, err := d.ConsumeBody(len(body))
			if err != nil {
				t.Fatalf("ConsumeBody: %v", err)
			}
			if progress.Status == ProgressComplete {
				break
			}
			continue
		}
		progress, err := d.Progress()
		if err != nil {
			t.Fatalf("Progress: %v", err)
		}
		if progress.Status == ProgressComplete {
			if progress.Trailers.GetString([]byte("X-Trailer")) != "done" {
				t.Errorf("trailer X-Trailer = %q, want done", progress.Trailers.GetString([]byte("X-Trailer")))
			}
			break
		}
	}
	if !bytes.Equal(collected, []byte("hello")) {
		t.Fatalf("collected body = %q, want hello", collected)
	}
}

func TestRequestDecoderDecodeOneShot(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	raw := "PUT /x HTTP/1.1\r\nHost: example.com\r\nContent-Length: 3\r\n\r\nabc"
	if err := d.Feed([]byte(raw)); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	head, body, done, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !done {
		t.Fatalf("Decode not done")
	}
	if head.Method != "PUT" || !bytes.Equal(body, []byte("abc")) {
		t.Errorf("head=%+v body=%q", head, body)
	}
}

func TestRequestDecoderMixedAPIRejected(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	raw := "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"
	d.Feed([]byte(raw))
	if _, _, err := d.DecodeHeaders(); err != nil {
		t.Fatalf("DecodeHeaders: %v", err)
	}
	if _, _, _, err := d.Decode(); err != ErrMixedAPI {
		t.Errorf("Decode after DecodeHeaders = %v, want ErrMixedAPI", err)
	}
}

func TestRequestDecoderMissingHostRejectedOnHTTP11(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	raw := "GET / HTTP/1.1\r\n\r\n"
	d.Feed([]byte(raw))
	if _, _, err := d.DecodeHeaders(); err == nil {
		t.Errorf("missing Host header on HTTP/1.1 should be rejected")
	}
}

func TestRequestDecoderMissingHostAllowedOnHTTP10(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	raw := "GET / HTTP/1.0\r\n\r\n"
	d.Feed([]byte(raw))
	if _, done, err := d.DecodeHeaders(); err != nil || !done {
		t.Errorf("HTTP/1.0 without Host should be accepted: done=%v err=%v", done, err)
	}
}

func TestRequestDecoderHTTP10WithTransferEncodingRejected(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	raw := "POST / HTTP/1.0\r\nTransfer-Encoding: chunked\r\n\r\n0\r\n\r\n"
	d.Feed([]byte(raw))
	if _, _, err := d.DecodeHeaders(); err == nil {
		t.Errorf("HTTP/1.0 with Transfer-Encoding should be rejected")
	}
}

func TestRequestDecoderContentLengthOverMaxBodySizeRejected(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxBodySize = 10
	d := NewRequestDecoder(limits)
	raw := "POST / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 1000\r\n\r\n"
	d.Feed([]byte(raw))
	if _, _, err := d.DecodeHeaders(); err == nil {
		t.Errorf("Content-Length exceeding MaxBodySize should be rejected upfront")
	} else if de, ok := err.(*DecodeError); !ok || de.Kind != KindBodyTooLarge {
		t.Errorf("error = %v, want KindBodyTooLarge", err)
	}
}

func TestRequestDecoderInvalidMethodRejected(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	d.Feed([]byte("get / HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	if _, _, err := d.DecodeHeaders(); err == nil {
		t.Errorf("lowercase method should be rejected")
	}
}

func TestRequestDecoderConnectAuthorityForm(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	d.Feed([]byte("CONNECT example.com:443 HTTP/1.1\r\nHost: example.com:443\r\n\r\n"))
	head, done, err := d.DecodeHeaders()
	if err != nil || !done {
		t.Fatalf("DecodeHeaders: done=%v err=%v", done, err)
	}
	if head.Target != "example.com:443" {
		t.Errorf("Target = %q", head.Target)
	}
}

func TestRequestDecoderConnectWithoutHostAllowed(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	d.Feed([]byte("CONNECT example.com:443 HTTP/1.1\r\n\r\n"))
	if _, done, err := d.DecodeHeaders(); err != nil || !done {
		t.Fatalf("CONNECT without Host should be accepted: done=%v err=%v", done, err)
	}
}

func TestRequestDecoderPartialFeedNeedsMoreData(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	d.Feed([]byte("GET / HTTP/1.1\r\nHost: exam"))
	_, done, err := d.DecodeHeaders()
	if err != nil {
		t.Fatalf("DecodeHeaders on partial input: %v", err)
	}
	if done {
		t.Fatalf("DecodeHeaders reported done on partial input")
	}
	d.Feed([]byte("ple.com\r\n\r\n"))
	_, done, err = d.DecodeHeaders()
	if err != nil || !done {
		t.Fatalf("DecodeHeaders after completing input: done=%v err=%v", done, err)
	}
}

func TestRequestDecoderPipelinedMessagesViaDecodeHeaders(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	raw := "GET /one HTTP/1.1\r\nHost: example.com\r\n\r\n" +
		"POST /two HTTP/1.1\r\nHost: example.com\r\nContent-Length: 3\r\n\r\nabc" +
		"GET /three HTTP/1.1\r\nHost: example.com\r\n\r\n"
	if err := d.Feed([]byte(raw)); err != nil {
		t.Fatalf("Feed: %v", err)
	}

	head, done, err := d.DecodeHeaders()
	if err != nil || !done || head.Target != "/one" {
		t.Fatalf("first message: head=%+v done=%v err=%v", head, done, err)
	}
	if d.BodyKind().Tag != BodyKindNone {
		t.Fatalf("first message BodyKind = %v, want BodyKindNone", d.BodyKind().Tag)
	}

	head, done, err = d.DecodeHeaders()
	if err != nil || !done || head.Target != "/two" {
		t.Fatalf("second message: head=%+v done=%v err=%v", head, done, err)
	}
	body := d.PeekBody()
	if !bytes.Equal(body, []byte("abc")) {
		t.Fatalf("second message body = %q, want abc", body)
	}
	if progress, err := d.ConsumeBody(len(body)); err != nil || progress.Status != ProgressComplete {
		t.Fatalf("ConsumeBody: progress=%+v err=%v", progress, err)
	}

	head, done, err = d.DecodeHeaders()
	if err != nil || !done || head.Target != "/three" {
		t.Fatalf("third message: head=%+v done=%v err=%v", head, done, err)
	}
}

func TestRequestDecoderPipelinedMessagesViaDecode(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	raw := "POST /a HTTP/1.1\r\nHost: example.com\r\nContent-Length: 1\r\n\r\nA" +
		"POST /b HTTP/1.1\r\nHost: example.com\r\nContent-Length: 1\r\n\r\nB"
	if err := d.Feed([]byte(raw)); err != nil {
		t.Fatalf("Feed: %v", err)
	}

	head, body, done, err := d.Decode()
	if err != nil || !done || head.Target != "/a" || !bytes.Equal(body, []byte("A")) {
		t.Fatalf("first Decode: head=%+v body=%q done=%v err=%v", head, body, done, err)
	}

	head, body, done, err = d.Decode()
	if err != nil || !done || head.Target != "/b" || !bytes.Equal(body, []byte("B")) {
		t.Fatalf("second Decode: head=%+v body=%q done=%v err=%v", head, body, done, err)
	}
}

func TestRequestDecoderReset(t *testing.T) {
	d := NewRequestDecoder(DefaultLimits())
	d.Feed([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	if _, _, err := d.DecodeHeaders(); err != nil {
		t.Fatalf("DecodeHeaders: %v", err)
	}
	d.Reset()
	if d.Remaining() != nil {
		t.Errorf("Remaining after Reset = %v, want nil", d.Remaining())
	}
	d.Feed([]byte("GET /two HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	head, done, err := d.DecodeHeaders()
	if err != nil || !done || head.Target != "/two" {
		t.Fatalf("decoder not reusable after Reset: head=%+v done=%v err=%v", head, done, err)
	}
}
