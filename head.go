package http11

import "strconv"

// HttpHead is the read-only contract shared by RequestHead and
// ResponseHead: header access plus the framing predicates that do not
// depend on which side of the connection produced the message.
type HttpHead interface {
	GetHeader(name string) (string, bool)
	GetHeaders(name string) []string
	HasHeader(name string) bool
	IsKeepAlive() bool
	IsChunked() bool
	ContentLength() (int, bool)
}

// RequestHead is the decoded request line plus headers, available once
// DecodeHeaders returns done for a RequestDecoder.
type RequestHead struct {
	Method  string
	Target  string
	Version string
	Headers HeaderList
}

func (h *RequestHead) GetHeader(name string) (string, bool) {
	return getHeader(&h.Headers, name)
}

func (h *RequestHead) GetHeaders(name string) []string {
	return h.Headers.GetAll([]byte(name))
}

func (h *RequestHead) HasHeader(name string) bool {
	return h.Headers.Has([]byte(name))
}

func (h *RequestHead) IsKeepAlive() bool {
	return isKeepAlive(h.Version, &h.Headers)
}

func (h *RequestHead) IsChunked() bool {
	return isChunkedTransferEncoding(&h.Headers)
}

func (h *RequestHead) ContentLength() (int, bool) {
	return contentLengthOf(&h.Headers)
}

// MethodID returns the fast-dispatch numeric ID for Method, or
// MethodUnknown for a syntactically valid but uncommon token (PROPFIND,
// MKCOL, ...) that RequestDecoder still accepts.
func (h *RequestHead) MethodID() uint8 {
	return ParseMethodID([]byte(h.Method))
}

// ResponseHead is the decoded status line plus headers, available once
// DecodeHeaders returns done for a ResponseDecoder.
type ResponseHead struct {
	Version string
	Status  int
	Reason  string
	Headers HeaderList
}

func (h *ResponseHead) GetHeader(name string) (string, bool) {
	return getHeader(&h.Headers, name)
}

func (h *ResponseHead) GetHeaders(name string) []string {
	return h.Headers.GetAll([]byte(name))
}

func (h *ResponseHead) HasHeader(name string) bool {
	return h.Headers.Has([]byte(name))
}

func (h *ResponseHead) IsKeepAlive() bool {
	return isKeepAlive(h.Version, &h.Headers)
}

func (h *ResponseHead) IsChunked() bool {
	return isChunkedTransferEncoding(&h.Headers)
}

func (h *ResponseHead) ContentLength() (int, bool) {
	return contentLengthOf(&h.Headers)
}

// IsInformational reports whether Status is in the 1xx range.
func (h *ResponseHead) IsInformational() bool { return h.Status >= 100 && h.Status < 200 }

// IsSuccess reports whether Status is in the 2xx range.
func (h *ResponseHead) IsSuccess() bool { return h.Status >= 200 && h.Status < 300 }

// IsRedirect reports whether Status is in the 3xx range.
func (h *ResponseHead) IsRedirect() bool { return h.Status >= 300 && h.Status < 400 }

// IsClientError reports whether Status is in the 4xx range.
func (h *ResponseHead) IsClientError() bool { return h.Status >= 400 && h.Status < 500 }

// IsServerError reports whether Status is in the 5xx range.
func (h *ResponseHead) IsServerError() bool { return h.Status >= 500 && h.Status < 600 }

func getHeader(headers *HeaderList, name string) (string, bool) {
	v := headers.Get([]byte(name))
	if v == nil {
		return "", false
	}
	return string(v), true
}

func contentLengthOf(headers *HeaderList) (int, bool) {
	v := headers.Get(headerContentLength)
	if v == nil {
		return 0, false
	}
	n, err := strconv.Atoi(string(v))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// isChunkedTransferEncoding reports whether headers carries exactly one
// Transfer-Encoding token, across all Transfer-Encoding header
// instances combined, and that token is "chunked". A coding list with
// more than one token ("gzip, chunked"), a second Transfer-Encoding
// header, or no Transfer-Encoding at all all return false.
func isChunkedTransferEncoding(headers *HeaderList) bool {
	values := headers.GetAll(headerTransferEncoding)
	if len(values) == 0 {
		return false
	}
	tokenCount := 0
	sawChunked := false
	for _, v := range values {
		for _, tok := range splitAndTrimCSV(v) {
			tokenCount++
			if stringsEqualFold(tok, "chunked") {
				sawChunked = true
			}
		}
	}
	return tokenCount == 1 && sawChunked
}

// connectionHasToken reports whether the Connection header contains token
// (case-insensitively) among its comma-separated values.
func connectionHasToken(headers *HeaderList, token string) bool {
	for _, v := range headers.GetAll(headerConnection) {
		for _, tok := range splitAndTrimCSV(v) {
			if stringsEqualFold(tok, token) {
				return true
			}
		}
	}
	return false
}

// isKeepAlive applies RFC 9112 §9.3's default-persistence rule: HTTP/1.1
// connections persist unless Connection: close is present; HTTP/1.0
// connections close unless Connection: keep-alive is present.
func isKeepAlive(version string, headers *HeaderList) bool {
	if connectionHasToken(headers, "close") {
		return false
	}
	if version == "HTTP/1.0" {
		return connectionHasToken(headers, "keep-alive")
	}
	return true
}
