package http11

import "strconv"

// Encoders append wire bytes to dst and return the grown slice, following
// the same append(dst, ...) idiom as the rest of the package so callers
// can reuse a pooled buffer across many messages. None of them validate
// their input against RFC 9112 grammar: callers build RequestHead/
// ResponseHead values (or hand-assembled headers) they already control,
// and a caller that encodes, say, an empty Host header gets exactly that
// on the wire rather than a late encode-time rejection.

// EncodeRequestHeaders appends a request line and header section
// (including the terminating blank line) for method/target/version and
// headers.
func EncodeRequestHeaders(dst []byte, method, target, version string, headers *HeaderList) []byte {
	dst = append(dst, method...)
	dst = append(dst, ' ')
	dst = append(dst, target...)
	dst = append(dst, ' ')
	dst = append(dst, version...)
	dst = append(dst, '\r', '\n')
	dst = appendHeaderLines(dst, headers)
	return dst
}

// EncodeResponseHeaders appends a status line and header section
// (including the terminating blank line) for version/status/reason and
// headers. If reason is empty, statusText(status) is used.
func EncodeResponseHeaders(dst []byte, version string, status int, reason string, headers *HeaderList) []byte {
	dst = append(dst, version...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(status), 10)
	dst = append(dst, ' ')
	if reason == "" {
		reason = statusText(status)
	}
	dst = append(dst, reason...)
	dst = append(dst, '\r', '\n')
	dst = appendHeaderLines(dst, headers)
	return dst
}

func appendHeaderLines(dst []byte, headers *HeaderList) []byte {
	if headers != nil {
		headers.VisitAll(func(name, value []byte) bool {
			dst = append(dst, name...)
			dst = append(dst, ':', ' ')
			dst = append(dst, value...)
			dst = append(dst, '\r', '\n')
			return true
		})
	}
	dst = append(dst, '\r', '\n')
	return dst
}

// EncodeRequest appends a full request (headers plus body, unframed) to
// dst. Callers using chunked transfer encoding should encode the body
// themselves with EncodeChunk/EncodeLastChunk instead of passing it here.
// If body is non-empty and headers carries neither Content-Length nor
// Transfer-Encoding, a Content-Length header is synthesized from len(body).
func EncodeRequest(dst []byte, method, target, version string, headers *HeaderList, body []byte) []byte {
	h := withSynthesizedContentLength(headers, len(body), false)
	dst = EncodeRequestHeaders(dst, method, target, version, h)
	dst = append(dst, body...)
	return dst
}

// EncodeResponse appends a full response (headers plus body, unframed) to
// dst. The same Content-Length synthesis as EncodeRequest applies, unless
// omitContentLength is set: a response to a HEAD request carries the
// Content-Length the corresponding GET body would have had, already set on
// headers, while body itself is intentionally empty.
func EncodeResponse(dst []byte, version string, status int, reason string, headers *HeaderList, body []byte, omitContentLength bool) []byte {
	h := withSynthesizedContentLength(headers, len(body), omitContentLength)
	dst = EncodeResponseHeaders(dst, version, status, reason, h)
	dst = append(dst, body...)
	return dst
}

// withSynthesizedContentLength returns headers unchanged unless bodyLen is
// non-zero and headers carries neither Content-Length nor
// Transfer-Encoding, in which case it returns a clone with a synthesized
// Content-Length so the caller-supplied HeaderList is never mutated.
func withSynthesizedContentLength(headers *HeaderList, bodyLen int, omit bool) *HeaderList {
	if omit || bodyLen == 0 || headerListHasFraming(headers) {
		return headers
	}
	clone := cloneHeaderList(headers)
	clone.Add(headerContentLength, strconv.AppendInt(nil, int64(bodyLen), 10))
	return clone
}

func headerListHasFraming(headers *HeaderList) bool {
	return headers != nil && (headers.Has(headerContentLength) || headers.Has(headerTransferEncoding))
}

func cloneHeaderList(headers *HeaderList) *HeaderList {
	if headers == nil {
		return &HeaderList{}
	}
	clone := *headers
	clone.overflow = append([]overflowHeader(nil), headers.overflow...)
	return &clone
}

// EncodeChunk appends one chunked-transfer-encoding chunk. An empty
// chunk is the terminal zero-length chunk ("0\r\n\r\n") that ends a
// chunked message with no trailers; a non-empty chunk appends its hex
// size, CRLF, the data, and a trailing CRLF.
func EncodeChunk(dst []byte, chunk []byte) []byte {
	if len(chunk) == 0 {
		return append(dst, '0', '\r', '\n', '\r', '\n')
	}
	dst = strconv.AppendInt(dst, int64(len(chunk)), 16)
	dst = append(dst, '\r', '\n')
	dst = append(dst, chunk...)
	dst = append(dst, '\r', '\n')
	return dst
}

// EncodeChunks appends each non-empty chunk via EncodeChunk, then the
// terminal zero-length chunk with no trailers. Empty entries in chunks
// are skipped rather than ending the stream early, since EncodeChunk
// treats an empty chunk as the terminator.
func EncodeChunks(dst []byte, chunks [][]byte) []byte {
	for _, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		dst = EncodeChunk(dst, chunk)
	}
	return EncodeLastChunk(dst, nil)
}

// EncodeLastChunk appends the terminal zero-length chunk, any trailer
// fields, and the final CRLF that ends a chunked message.
func EncodeLastChunk(dst []byte, trailers *HeaderList) []byte {
	dst = append(dst, '0', '\r', '\n')
	return appendHeaderLines(dst, trailers)
}

// statusText returns the reason phrase for an HTTP status code per
// RFC 9110 §15, used by EncodeResponseHeaders when the caller leaves
// reason empty.
func statusText(code int) string {
	switch code {
	case 100:
		return "Continue"
	case 101:
		return "Switching Protocols"

	case 200:
		return "OK"
	case 201:
		return "Created"
	case 202:
		return "Accepted"
	case 203:
		return "Non-Authoritative Information"
	case 204:
		return "No Content"
	case 205:
		return "Reset Content"
	case 206:
		return "Partial Content"

	case 300:
		return "Multiple Choices"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 303:
		return "See Other"
	case 304:
		return "Not Modified"
	case 305:
		return "Use Proxy"
	case 307:
		return "Temporary Redirect"
	case 308:
		return "Permanent Redirect"

	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 402:
		return "Payment Required"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 406:
		return "Not Acceptable"
	case 407:
		return "Proxy Authentication Required"
	case 408:
		return "Request Timeout"
	case 409:
		return "Conflict"
	case 410:
		return "Gone"
	case 411:
		return "Length Required"
	case 412:
		return "Precondition Failed"
	case 413:
		return "Payload Too Large"
	case 414:
		return "URI Too Long"
	case 415:
		return "Unsupported Media Type"
	case 416:
		return "Range Not Satisfiable"
	case 417:
		return "Expectation Failed"
	case 418:
		return "I'm a teapot"
	case 422:
		return "Unprocessable Entity"
	case 426:
		return "Upgrade Required"
	case 428:
		return "Precondition Required"
	case 429:
		return "Too Many Requests"
	case 431:
		return "Request Header Fields Too Large"

	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 502:
		return "Bad Gateway"
	case 503:
		return "Service Unavailable"
	case 504:
		return "Gateway Timeout"
	case 505:
		return "HTTP Version Not Supported"

	default:
		return "Unknown"
	}
}
