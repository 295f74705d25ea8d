package http11

import "strconv"

// isValidMethodToken reports whether method is a non-empty sequence of
// uppercase ASCII letters plus '_' and '-'. This is deliberately broader
// than the nine methods method.go fast-dispatches on: RequestDecoder must
// accept any syntactically valid method token (PROPFIND, MKCOL, ...), not
// just the common ones.
func isValidMethodToken(method []byte) bool {
	if len(method) == 0 {
		return false
	}
	for _, b := range method {
		if (b >= 'A' && b <= 'Z') || b == '_' || b == '-' {
			continue
		}
		return false
	}
	return true
}

// isValidHTTPVersion reports whether version is exactly "HTTP/1.0" or
// "HTTP/1.1".
func isValidHTTPVersion(version []byte) bool {
	return string(version) == "HTTP/1.0" || string(version) == "HTTP/1.1"
}

// isValidStatusCode reports whether code falls in the RFC 9110 status
// code range.
func isValidStatusCode(code int) bool {
	return code >= 100 && code <= 599
}

// isValidReasonPhrase reports whether every byte of reason is HTAB, SP,
// VCHAR, or obs-text.
func isValidReasonPhrase(reason []byte) bool {
	for _, b := range reason {
		if !(b == 0x09 || b == 0x20 || (b >= 0x21 && b <= 0x7E) || b >= 0x80) {
			return false
		}
	}
	return true
}

// isTokenChar reports whether b is a valid RFC 9110 tchar.
func isTokenChar(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// isValidHeaderName reports whether name is a non-empty token.
func isValidHeaderName(name []byte) bool {
	if len(name) == 0 {
		return false
	}
	for _, b := range name {
		if !isTokenChar(b) {
			return false
		}
	}
	return true
}

// isValidFieldVChar reports whether b is VCHAR or obs-text.
func isValidFieldVChar(b byte) bool {
	return (b >= 0x21 && b <= 0x7E) || b >= 0x80
}

// isValidFieldValue reports whether value (already OWS-trimmed) contains
// only HTAB, SP, or field-vchar bytes.
func isValidFieldValue(value []byte) bool {
	for _, b := range value {
		if b == 0x09 || b == 0x20 || isValidFieldVChar(b) {
			continue
		}
		return false
	}
	return true
}

// requestTargetForm is the RFC 9112 §3.2 shape of a request-target.
type requestTargetForm int

const (
	formOrigin requestTargetForm = iota
	formAbsolute
	formAuthority
	formAsterisk
)

// parseRequestTargetForm classifies target without validating its
// character content.
func parseRequestTargetForm(target []byte) requestTargetForm {
	if len(target) == 1 && target[0] == '*' {
		return formAsterisk
	}
	if len(target) > 0 && target[0] == '/' {
		return formOrigin
	}
	if looksLikeAbsoluteForm(target) {
		return formAbsolute
	}
	return formAuthority
}

func looksLikeAbsoluteForm(target []byte) bool {
	for i, b := range target {
		switch {
		case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z':
			continue
		case b >= '0' && b <= '9' && i > 0:
			continue
		case (b == '+' || b == '-' || b == '.') && i > 0:
			continue
		case b == ':' && i > 0:
			return i+2 < len(target) && target[i+1] == '/' && target[i+2] == '/'
		default:
			return false
		}
	}
	return false
}

// isRFC3986Excluded reports whether b is one of the printable characters
// that RFC 3986 allows in no URI component; they are rejected even though
// they are not control characters.
func isRFC3986Excluded(b byte) bool {
	switch b {
	case '"', '<', '>', '\\', '^', '`', '{', '|', '}':
		return true
	}
	return false
}

func isUnreservedByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '-', '.', '_', '~':
		return true
	}
	return false
}

func isSubDelimByte(b byte) bool {
	switch b {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

func isPcharByte(b byte) bool {
	return isUnreservedByte(b) || isSubDelimByte(b) || b == ':' || b == '@'
}

func isPcharOrSlashByte(b byte) bool {
	return isPcharByte(b) || b == '/'
}

func isQueryCharByte(b byte) bool {
	return isPcharByte(b) || b == '/' || b == '?'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// validatePercentEncodedChars walks s applying allowed for plain bytes and
// rejecting %00 / malformed percent-escapes / control bytes / RFC 3986
// excluded characters.
func validatePercentEncodedChars(s []byte, allowed func(byte) bool) error {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '%' {
			if i+2 >= len(s) || !isHexDigit(s[i+1]) || !isHexDigit(s[i+2]) {
				return invalidData("invalid percent-encoding in request-target")
			}
			if s[i+1] == '0' && (s[i+2] == '0') {
				return invalidData("request-target contains a percent-encoded NUL byte")
			}
			i += 2
			continue
		}
		if b <= 0x20 || b == 0x7F {
			return invalidData("request-target contains a control character")
		}
		if isRFC3986Excluded(b) {
			return invalidData("request-target contains an excluded character")
		}
		if !allowed(b) {
			return invalidData("request-target contains a character outside its grammar")
		}
	}
	return nil
}

func validateOriginForm(target []byte) error {
	path := target
	query := []byte(nil)
	if idx := indexByte(target, '?'); idx >= 0 {
		path = target[:idx]
		query = target[idx+1:]
	}
	if indexByte(target, '#') >= 0 {
		return invalidData("request-target must not contain a fragment")
	}
	if err := validatePercentEncodedChars(path, isPcharOrSlashByte); err != nil {
		return err
	}
	if query != nil {
		if err := validatePercentEncodedChars(query, isQueryCharByte); err != nil {
			return err
		}
	}
	return nil
}

func validateAbsoluteForm(target []byte) error {
	if indexByte(target, '#') >= 0 {
		return invalidData("request-target must not contain a fragment")
	}
	if !looksLikeAbsoluteForm(target) {
		return invalidData("malformed absolute-form request-target")
	}
	return nil
}

func validateAuthorityForm(target []byte) error {
	idx := lastIndexByte(target, ':')
	if idx < 0 {
		return invalidData("authority-form request-target must contain a port")
	}
	host := target[:idx]
	port := target[idx+1:]
	if len(host) == 0 {
		return invalidData("authority-form request-target has an empty host")
	}
	if _, err := ParseHost(string(host)); err != nil {
		return invalidData("authority-form request-target has an invalid host: %s", err)
	}
	n, err := strconv.ParseUint(string(port), 10, 16)
	if err != nil {
		return invalidData("authority-form request-target has an invalid port")
	}
	_ = n
	return nil
}

func validateAsteriskForm(target []byte) error {
	if len(target) != 1 || target[0] != '*' {
		return invalidData("asterisk-form request-target must be exactly \"*\"")
	}
	return nil
}

// validateRequestTarget validates target's character content given its
// form, then cross-checks the form against method per RFC 9112 §3.2.3-6.
func validateRequestTarget(method, target []byte) error {
	form := parseRequestTargetForm(target)
	switch form {
	case formOrigin:
		if err := validateOriginForm(target); err != nil {
			return err
		}
	case formAbsolute:
		if err := validateAbsoluteForm(target); err != nil {
			return err
		}
	case formAuthority:
		if err := validateAuthorityForm(target); err != nil {
			return err
		}
	case formAsterisk:
		if err := validateAsteriskForm(target); err != nil {
			return err
		}
	}

	id := ParseMethodID(method)
	isConnect := id == MethodCONNECT
	isOptions := id == MethodOPTIONS

	switch {
	case isConnect && form != formAuthority:
		return invalidData("CONNECT requires an authority-form request-target")
	case !isConnect && form == formAuthority:
		return invalidData("only CONNECT may use an authority-form request-target")
	case isOptions && form != formAsterisk && form != formOrigin && form != formAbsolute:
		return invalidData("OPTIONS requires asterisk-form, origin-form, or absolute-form")
	case !isConnect && !isOptions && form != formOrigin && form != formAbsolute:
		return invalidData("request-target must be origin-form or absolute-form")
	}
	return nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func lastIndexByte(b []byte, c byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == c {
			return i
		}
	}
	return -1
}
