package http11

import "strconv"

// ResponseDecoder incrementally decodes a stream of responses from a byte
// stream, mirroring RequestDecoder, including pipelined reuse: once a
// response reaches phaseComplete, the next DecodeHeaders/Decode call
// parses the following response directly out of any buffered bytes
// left over. Two response-specific controls affect how the body is
// framed once headers are known: SetExpectNoBody (for responses to HEAD
// requests, where Content-Length/Transfer-Encoding describe a body that
// was never sent) and SetExpectTunnel (for a 2xx response to a CONNECT
// request, after which the connection carries an opaque byte stream
// this decoder no longer frames as HTTP). Both must be set again before
// each DecodeHeaders/Decode call whose response they apply to.
type ResponseDecoder struct {
	limits Limits

	buf   []byte
	state decodeState
	body  bodyDecoder

	head     ResponseHead
	headDone bool
	bodyKind BodyKind

	expectNoBody bool
	expectTunnel bool

	usedStreaming bool
	usedDecode    bool

	fullBody []byte
}

// NewResponseDecoder returns a decoder ready to parse one response under
// limits.
func NewResponseDecoder(limits Limits) *ResponseDecoder {
	return &ResponseDecoder{limits: limits}
}

// SetExpectNoBody tells the decoder that, regardless of Content-Length or
// Transfer-Encoding, no body bytes follow the headers. Set this before
// DecodeHeaders/Decode returns for a response to a HEAD request.
func (d *ResponseDecoder) SetExpectNoBody(v bool) { d.expectNoBody = v }

// SetExpectTunnel tells the decoder that a successful response switches
// the connection to an opaque tunnel (the 2xx response to a CONNECT
// request). Set this before DecodeHeaders/Decode returns; once resolved,
// the body is reported as BodyKindTunnel and PeekBody/ConsumeBody hand
// back raw bytes without further HTTP framing.
func (d *ResponseDecoder) SetExpectTunnel(v bool) { d.expectTunnel = v }

// Feed appends data to the decoder's internal buffer. Returns a
// *DecodeError (KindBufferOverflow) if the result would exceed
// limits.MaxBufferSize.
func (d *ResponseDecoder) Feed(data []byte) error {
	newLen, overflow := addChecked(len(d.buf), len(data), d.limits.MaxBufferSize)
	if overflow {
		return bufferOverflow(newLen, d.limits.MaxBufferSize)
	}
	d.buf = append(d.buf, data...)
	return nil
}

// Remaining returns the bytes fed but not yet consumed.
func (d *ResponseDecoder) Remaining() []byte { return d.buf }

// BodyKind returns the framing resolved by the most recent DecodeHeaders
// or Decode call.
func (d *ResponseDecoder) BodyKind() BodyKind { return d.bodyKind }

// IsCloseDelimited reports whether the body ends only when the
// connection closes, meaning the caller must call MarkEOF once it
// observes that closure.
func (d *ResponseDecoder) IsCloseDelimited() bool {
	return d.bodyKind.Tag == BodyKindCloseDelimited
}

// MarkEOF signals that the underlying connection closed, which is the
// only terminator a close-delimited body has. It is an error to call
// this outside phaseBodyCloseDelimited.
func (d *ResponseDecoder) MarkEOF() (BodyProgress, error) {
	if d.state.phase != phaseBodyCloseDelimited {
		return BodyProgress{}, ErrWrongPhase
	}
	d.state.phase = phaseComplete
	return BodyProgress{Status: ProgressComplete}, nil
}

// DecodeHeaders parses the status line and header section. It returns
// (head, true, nil) once both are available, (nil, false, nil) if more
// input is needed, or a non-nil error on malformed input.
func (d *ResponseDecoder) DecodeHeaders() (*ResponseHead, bool, error) {
	if d.usedDecode {
		return nil, false, ErrMixedAPI
	}
	d.usedStreaming = true
	done, err := d.decodeHeadersInner()
	if err != nil || !done {
		return nil, false, err
	}
	return &d.head, true, nil
}

func (d *ResponseDecoder) decodeHeadersInner() (bool, error) {
	if d.headDone {
		if d.state.phase != phaseComplete {
			return true, nil
		}
		d.beginNextMessage()
	}
	if d.state.phase == phaseStartLine {
		done, err := d.decodeStatusLine()
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
		d.state.phase = phaseHeaders
	}
	done, err := decodeHeaderLines(&d.buf, &d.head.Headers, d.limits)
	if err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}
	if err := d.resolveBody(); err != nil {
		return false, err
	}
	d.headDone = true
	return true, nil
}

func (d *ResponseDecoder) decodeStatusLine() (bool, error) {
	pos := findCRLF(d.buf)
	if pos < 0 {
		if len(d.buf) > d.limits.MaxHeaderLineSize {
			return false, headerLineTooLong(len(d.buf), d.limits.MaxHeaderLineSize)
		}
		return false, nil
	}
	if pos > d.limits.MaxHeaderLineSize {
		return false, headerLineTooLong(pos, d.limits.MaxHeaderLineSize)
	}
	line := d.buf[:pos]

	sp1 := indexByte(line, ' ')
	if sp1 < 0 {
		return false, invalidData("malformed status line")
	}
	version := line[:sp1]
	rest := line[sp1+1:]

	var codeBytes, reason []byte
	if sp2 := indexByte(rest, ' '); sp2 >= 0 {
		codeBytes = rest[:sp2]
		reason = rest[sp2+1:]
	} else {
		codeBytes = rest
		reason = nil
	}

	if !isValidHTTPVersion(version) {
		return false, invalidData("invalid HTTP version")
	}
	if len(codeBytes) != 3 {
		return false, invalidData("status code must be exactly 3 digits")
	}
	code, err := strconv.Atoi(string(codeBytes))
	if err != nil {
		return false, invalidData("status code must be numeric")
	}
	if !isValidStatusCode(code) {
		return false, invalidData("status code %d out of range", code)
	}
	if !isValidReasonPhrase(reason) {
		return false, invalidData("invalid reason phrase")
	}

	d.head.Version = string(version)
	d.head.Status = code
	d.head.Reason = string(reason)
	d.buf = d.buf[pos+2:]
	return true, nil
}

// beginNextMessage clears the state left over from a response that has
// already reached phaseComplete, so the decoder can be reused on a
// persistent connection: a following DecodeHeaders/Decode call parses
// the next response out of whatever bytes remain in d.buf. It leaves
// expectNoBody/expectTunnel untouched, since those describe the request
// the caller is about to match the next response against, not the
// message just finished; the caller sets them again via
// SetExpectNoBody/SetExpectTunnel before decoding each response. Unlike
// Reset, it never touches d.buf.
func (d *ResponseDecoder) beginNextMessage() {
	d.state = decodeState{}
	d.body.reset()
	d.head = ResponseHead{}
	d.headDone = false
	d.bodyKind = BodyKind{}
	d.fullBody = nil
}

func isNoBodyStatus(code int) bool {
	return code/100 == 1 || code == 204 || code == 304
}

func (d *ResponseDecoder) resolveBody() error {
	chunked, cl, hasCL, err := resolveBodyHeaders(&d.head.Headers)
	if err != nil {
		return err
	}
	switch {
	case d.expectTunnel && d.head.IsSuccess():
		d.bodyKind = BodyKind{Tag: BodyKindTunnel}
		d.state.phase = phaseTunnel
	case d.expectNoBody || isNoBodyStatus(d.head.Status):
		d.bodyKind = BodyKind{Tag: BodyKindNone}
		d.state.phase = phaseComplete
	case chunked:
		d.bodyKind = BodyKind{Tag: BodyKindChunked}
		d.state.phase = phaseBodyChunkedSize
	case hasCL:
		if cl > d.limits.MaxBodySize {
			return bodyTooLarge(cl, d.limits.MaxBodySize)
		}
		d.bodyKind = BodyKind{Tag: BodyKindContentLength, Length: cl}
		if cl == 0 {
			d.state.phase = phaseComplete
		} else {
			d.state.phase = phaseBodyContentLength
			d.state.remaining = cl
		}
	default:
		d.bodyKind = BodyKind{Tag: BodyKindCloseDelimited}
		d.state.phase = phaseBodyCloseDelimited
	}
	return nil
}

// PeekBody returns the body bytes currently available without consuming
// them. The returned slice aliases the decoder's internal buffer and is
// only valid until the next Feed, ConsumeBody, Progress, or MarkEOF call.
func (d *ResponseDecoder) PeekBody() []byte {
	return d.body.peekBody(d.buf, &d.state)
}

// ConsumeBody takes n bytes previously returned by PeekBody out of the
// decoder. n must be greater than zero; use Progress to advance
// chunked-framing control state without consuming body bytes.
func (d *ResponseDecoder) ConsumeBody(n int) (BodyProgress, error) {
	if n == 0 {
		return BodyProgress{}, ErrConsumeZero
	}
	return d.body.consumeBody(&d.buf, &d.state, n, d.limits)
}

// Progress advances the body state machine when no bytes are being
// taken. It is a no-op, returning ProgressContinue, outside the phases
// that need it.
func (d *ResponseDecoder) Progress() (BodyProgress, error) {
	return d.body.consumeBody(&d.buf, &d.state, 0, d.limits)
}

// Decode drains the head and the entire body in one call, returning
// (head, body, true, nil) once the message is complete, or (nil, nil,
// false, nil) if more input is needed. For a close-delimited body it
// never reports done: it collects body bytes and returns (nil, nil,
// false, nil) whenever the buffer runs dry, and once MarkEOF has
// completed the message, the next Decode call starts on the following
// response without returning the collected body. Use the streaming API
// for close-delimited responses.
func (d *ResponseDecoder) Decode() (*ResponseHead, []byte, bool, error) {
	if d.usedStreaming {
		return nil, nil, false, ErrMixedAPI
	}
	d.usedDecode = true

	done, err := d.decodeHeadersInner()
	if err != nil {
		return nil, nil, false, err
	}
	if !done {
		return nil, nil, false, nil
	}

	for d.state.phase != phaseComplete {
		if d.state.phase == phaseBodyCloseDelimited || d.state.phase == phaseTunnel {
			body := d.body.peekBody(d.buf, &d.state)
			if len(body) == 0 {
				return nil, nil, false, nil
			}
			d.fullBody = append(d.fullBody, body...)
			if _, err := d.body.consumeBody(&d.buf, &d.state, len(body), d.limits); err != nil {
				return nil, nil, false, err
			}
			continue
		}
		body := d.body.peekBody(d.buf, &d.state)
		if len(body) > 0 {
			d.fullBody = append(d.fullBody, body...)
			progress, err := d.body.consumeBody(&d.buf, &d.state, len(body), d.limits)
			if err != nil {
				return nil, nil, false, err
			}
			if progress.Status == ProgressComplete {
				break
			}
			continue
		}
		progress, err := d.body.consumeBody(&d.buf, &d.state, 0, d.limits)
		if err != nil {
			return nil, nil, false, err
		}
		if progress.Status == ProgressComplete {
			break
		}
		if d.body.peekBody(d.buf, &d.state) == nil && d.state.phase != phaseComplete {
			return nil, nil, false, nil
		}
	}
	return &d.head, d.fullBody, true, nil
}

// Reset clears the decoder so it can parse a new response, reusing its
// allocated storage.
func (d *ResponseDecoder) Reset() {
	d.buf = nil
	d.state = decodeState{}
	d.body.reset()
	d.head = ResponseHead{}
	d.headDone = false
	d.bodyKind = BodyKind{}
	d.expectNoBody = false
	d.expectTunnel = false
	d.usedStreaming = false
	d.usedDecode = false
	d.fullBody = nil
}
