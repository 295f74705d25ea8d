package http11

// HeaderList stores an ordered sequence of (name, value) pairs. Headers
// are stored inline for up to MaxHeaders entries to avoid heap allocation
// on the common path; beyond that, or for values too large for inline
// storage, entries spill into an overflow slice. Once one entry has
// spilled, every later entry goes to the overflow slice as well, so
// iteration and GetAll still follow insertion order.
//
// Lookup is case-insensitive on name, per RFC 9110 §5.1. Duplicate names
// are preserved in insertion order — callers needing the RFC 9110 §5.3
// comma-joined view of a multi-valued header (Connection,
// Transfer-Encoding, ...) should use GetAll and join with ", ".
type HeaderList struct {
	names  [MaxHeaders][MaxHeaderName]byte
	values [MaxHeaders][MaxHeaderValue]byte

	nameLens  [MaxHeaders]uint8
	valueLens [MaxHeaders]uint8

	count uint8

	overflow []overflowHeader
}

type overflowHeader struct {
	name  string
	value string
}

// Add appends a header, preserving any existing header of the same name.
// Returns a *DecodeError (KindInvalidData) if name exceeds MaxHeaderName,
// value exceeds 8KiB, or either contains a CR or LF byte.
//
// Allocation behavior: 0 allocs/op while count < MaxHeaders, value fits
// inline, and no earlier entry has spilled into the overflow slice.
func (h *HeaderList) Add(name, value []byte) error {
	if len(name) > MaxHeaderName {
		return invalidData("header name exceeds %d bytes", MaxHeaderName)
	}
	if len(value) > 8192 {
		return invalidData("header value exceeds 8192 bytes")
	}
	for _, b := range name {
		if b == '\r' || b == '\n' {
			return invalidData("header name contains a CR or LF byte")
		}
	}
	for _, b := range value {
		if b == '\r' || b == '\n' {
			return invalidData("header value contains a CR or LF byte")
		}
	}

	if h.count < MaxHeaders && len(value) <= MaxHeaderValue && len(h.overflow) == 0 {
		idx := h.count
		copy(h.names[idx][:], name)
		copy(h.values[idx][:], value)
		h.nameLens[idx] = uint8(len(name))
		h.valueLens[idx] = uint8(len(value))
		h.count++
		return nil
	}

	h.overflow = append(h.overflow, overflowHeader{name: string(name), value: string(value)})
	return nil
}

// Get returns the first value with a case-insensitive name match, or nil
// if absent. The returned slice aliases internal storage and is only
// valid until the next mutating call.
func (h *HeaderList) Get(name []byte) []byte {
	for i := uint8(0); i < h.count; i++ {
		if h.nameLens[i] == uint8(len(name)) && bytesEqualCaseInsensitive(h.names[i][:h.nameLens[i]], name) {
			return h.values[i][:h.valueLens[i]]
		}
	}
	for i := range h.overflow {
		if len(h.overflow[i].name) == len(name) && stringEqualCaseInsensitiveBytes(h.overflow[i].name, name) {
			return []byte(h.overflow[i].value)
		}
	}
	return nil
}

// GetString is Get, converted to a string (one allocation).
func (h *HeaderList) GetString(name []byte) string {
	v := h.Get(name)
	if v == nil {
		return ""
	}
	return string(v)
}

// GetAll returns every value stored under name, in insertion order.
func (h *HeaderList) GetAll(name []byte) []string {
	var out []string
	for i := uint8(0); i < h.count; i++ {
		if h.nameLens[i] == uint8(len(name)) && bytesEqualCaseInsensitive(h.names[i][:h.nameLens[i]], name) {
			out = append(out, string(h.values[i][:h.valueLens[i]]))
		}
	}
	for i := range h.overflow {
		if len(h.overflow[i].name) == len(name) && stringEqualCaseInsensitiveBytes(h.overflow[i].name, name) {
			out = append(out, h.overflow[i].value)
		}
	}
	return out
}

// Has reports whether a header with the given name is present.
func (h *HeaderList) Has(name []byte) bool {
	return h.Get(name) != nil
}

// Len returns the total number of stored headers (inline plus overflow).
func (h *HeaderList) Len() int {
	return int(h.count) + len(h.overflow)
}

// Reset clears all headers for reuse.
func (h *HeaderList) Reset() {
	h.count = 0
	h.overflow = nil
}

// VisitAll calls visitor for every header in insertion order, stopping
// early if visitor returns false.
func (h *HeaderList) VisitAll(visitor func(name, value []byte) bool) {
	for i := uint8(0); i < h.count; i++ {
		if !visitor(h.names[i][:h.nameLens[i]], h.values[i][:h.valueLens[i]]) {
			return
		}
	}
	for i := range h.overflow {
		if !visitor([]byte(h.overflow[i].name), []byte(h.overflow[i].value)) {
			return
		}
	}
}

func bytesEqualCaseInsensitive(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if toLower(a[i]) != toLower(b[i]) {
			return false
		}
	}
	return true
}

func stringEqualCaseInsensitiveBytes(a string, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if toLower(a[i]) != toLower(b[i]) {
			return false
		}
	}
	return true
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}
