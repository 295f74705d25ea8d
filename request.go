package http11

// RequestDecoder incrementally decodes a stream of pipelined HTTP/1.1
// requests from a byte stream. Feed appends input; DecodeHeaders parses
// the request line and header section; PeekBody/ConsumeBody/Progress
// stream the body without copying it. Decode is a one-shot convenience
// that drains head and body together and must not be mixed with the
// streaming methods on the same decoder instance. Once a message
// reaches phaseComplete, the next DecodeHeaders/Decode call on the same
// decoder starts parsing the following pipelined request directly out
// of any bytes left in the buffer; call Reset only to discard a
// decoder's state entirely (e.g. abandoning a connection mid-message).
type RequestDecoder struct {
	limits Limits

	buf   []byte
	state decodeState
	body  bodyDecoder

	head     RequestHead
	headDone bool
	bodyKind BodyKind

	usedStreaming bool
	usedDecode    bool

	fullBody []byte
}

// NewRequestDecoder returns a decoder ready to parse one request under
// limits.
func NewRequestDecoder(limits Limits) *RequestDecoder {
	return &RequestDecoder{limits: limits}
}

// Feed appends data to the decoder's internal buffer. Returns a
// *DecodeError (KindBufferOverflow) if the result would exceed
// limits.MaxBufferSize.
func (d *RequestDecoder) Feed(data []byte) error {
	newLen, overflow := addChecked(len(d.buf), len(data), d.limits.MaxBufferSize)
	if overflow {
		return bufferOverflow(newLen, d.limits.MaxBufferSize)
	}
	d.buf = append(d.buf, data...)
	return nil
}

// Remaining returns the bytes fed but not yet consumed.
func (d *RequestDecoder) Remaining() []byte { return d.buf }

// BodyKind returns the framing resolved by the most recent DecodeHeaders
// or Decode call. Its zero value (BodyKindNone) is meaningless before the
// head has been fully decoded.
func (d *RequestDecoder) BodyKind() BodyKind { return d.bodyKind }

// DecodeHeaders parses the request line and header section. It returns
// (head, true, nil) once both are available, (nil, false, nil) if more
// input is needed, or a non-nil error on malformed input. Calling it
// again while the body is still being read returns the same head; once
// the body has reached completion, calling it again starts parsing the
// next pipelined request instead.
func (d *RequestDecoder) DecodeHeaders() (*RequestHead, bool, error) {
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

func (d *RequestDecoder) decodeHeadersInner() (bool, error) {
	if d.headDone {
		if d.state.phase != phaseComplete {
			return true, nil
		}
		d.beginNextMessage()
	}
	if d.state.phase == phaseStartLine {
		done, err := d.decodeStartLine()
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
	if err := d.validateHost(); err != nil {
		return false, err
	}
	if err := d.resolveBody(); err != nil {
		return false, err
	}
	d.headDone = true
	return true, nil
}

// beginNextMessage clears the state left over from a message that has
// already reached phaseComplete, so the decoder can be reused on a
// pipelined connection: a following DecodeHeaders/Decode call parses
// the next request out of whatever bytes remain in d.buf. Unlike
// Reset, it never touches d.buf.
func (d *RequestDecoder) beginNextMessage() {
	d.state = decodeState{}
	d.body.reset()
	d.head = RequestHead{}
	d.headDone = false
	d.bodyKind = BodyKind{}
	d.fullBody = nil
}

// validateHost enforces RFC 9112 §3.2's requirement that an HTTP/1.1
// request carry exactly one valid Host header (authority-form and
// CONNECT requests carry their authority in the request-target instead,
// so an absent Host there is not an error).
func (d *RequestDecoder) validateHost() error {
	hostValues := d.head.Headers.GetAll(headerHost)
	if len(hostValues) > 1 {
		return invalidData("request has more than one Host header")
	}
	if len(hostValues) == 0 {
		if d.head.Version == "HTTP/1.1" && d.head.MethodID() != MethodCONNECT {
			return invalidData("HTTP/1.1 request is missing a required Host header")
		}
		return nil
	}
	if _, err := ParseHost(hostValues[0]); err != nil {
		return invalidData("request has a malformed Host header: %s", err)
	}
	return nil
}

func (d *RequestDecoder) decodeStartLine() (bool, error) {
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
		return false, invalidData("malformed request line")
	}
	method := line[:sp1]
	rest := line[sp1+1:]

	sp2 := indexByte(rest, ' ')
	if sp2 < 0 {
		return false, invalidData("malformed request line")
	}
	target := rest[:sp2]
	version := rest[sp2+1:]

	if !isValidMethodToken(method) {
		return false, invalidData("invalid method token")
	}
	if !isValidHTTPVersion(version) {
		return false, invalidData("invalid HTTP version")
	}
	if err := validateRequestTarget(method, target); err != nil {
		return false, err
	}

	d.head.Method = string(method)
	d.head.Target = string(target)
	d.head.Version = string(version)
	d.buf = d.buf[pos+2:]
	return true, nil
}

func (d *RequestDecoder) resolveBody() error {
	chunked, cl, hasCL, err := resolveBodyHeaders(&d.head.Headers)
	if err != nil {
		return err
	}
	if d.head.Version == "HTTP/1.0" && d.head.Headers.Has(headerTransferEncoding) {
		return invalidData("HTTP/1.0 requests must not use Transfer-Encoding")
	}
	switch {
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
		d.bodyKind = BodyKind{Tag: BodyKindNone}
		d.state.phase = phaseComplete
	}
	return nil
}

// PeekBody returns the body bytes currently available without consuming
// them. The returned slice aliases the decoder's internal buffer and is
// only valid until the next Feed, ConsumeBody, or Progress call.
func (d *RequestDecoder) PeekBody() []byte {
	return d.body.peekBody(d.buf, &d.state)
}

// ConsumeBody takes n bytes previously returned by PeekBody out of the
// decoder. n must be greater than zero; use Progress to advance
// chunked-framing control state without consuming body bytes.
func (d *RequestDecoder) ConsumeBody(n int) (BodyProgress, error) {
	if n == 0 {
		return BodyProgress{}, ErrConsumeZero
	}
	return d.body.consumeBody(&d.buf, &d.state, n, d.limits)
}

// Progress advances the body state machine when no bytes are being taken
// (e.g. parsing a chunk-size line or trailer section once enough input
// has been fed). It is a no-op, returning ProgressContinue, outside the
// phases that need it.
func (d *RequestDecoder) Progress() (BodyProgress, error) {
	return d.body.consumeBody(&d.buf, &d.state, 0, d.limits)
}

// Decode drains the head and the entire body in one call, returning
// (head, body, true, nil) once the message is complete, or (nil, nil,
// false, nil) if more input is needed. It must not be used on a decoder
// that has also called DecodeHeaders/PeekBody/ConsumeBody/Progress.
func (d *RequestDecoder) Decode() (*RequestHead, []byte, bool, error) {
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

// Reset clears the decoder so it can parse a new request, reusing its
// allocated storage.
func (d *RequestDecoder) Reset() {
	d.buf = nil
	d.state = decodeState{}
	d.body.reset()
	d.head = RequestHead{}
	d.headDone = false
	d.bodyKind = BodyKind{}
	d.usedStreaming = false
	d.usedDecode = false
	d.fullBody = nil
}
