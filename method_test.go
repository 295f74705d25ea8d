package http11

import "testing"

func TestParseMethodID(t *testing.T) {
	tests := []struct {
		method string
		want   uint8
	}{
		{"GET", MethodGET},
		{"PUT", MethodPUT},
		{"POST", MethodPOST},
		{"HEAD", MethodHEAD},
		{"PATCH", MethodPATCH},
		{"TRACE", MethodTRACE},
		{"DELETE", MethodDELETE},
		{"OPTIONS", MethodOPTIONS},
		{"CONNECT", MethodCONNECT},
		{"PROPFIND", MethodUnknown},
		{"", MethodUnknown},
		{"get", MethodUnknown},
	}
	for _, tt := range tests {
		if got := ParseMethodID([]byte(tt.method)); got != tt.want {
			t.Errorf("ParseMethodID(%q) = %d, want %d", tt.method, got, tt.want)
		}
	}
}

func TestMethodStringRoundTrip(t *testing.T) {
	ids := []uint8{MethodGET, MethodPOST, MethodPUT, MethodDELETE, MethodPATCH, MethodHEAD, MethodOPTIONS, MethodCONNECT, MethodTRACE}
	for _, id := range ids {
		s := MethodString(id)
		if s == "" {
			t.Errorf("MethodString(%d) = empty", id)
			continue
		}
		if got := ParseMethodID([]byte(s)); got != id {
			t.Errorf("ParseMethodID(MethodString(%d)) = %d, want %d", id, got, id)
		}
		if string(MethodBytes(id)) != s {
			t.Errorf("MethodBytes(%d) = %q, want %q", id, MethodBytes(id), s)
		}
	}
}

func TestMethodStringUnknown(t *testing.T) {
	if MethodString(MethodUnknown) != "" {
		t.Errorf("MethodString(MethodUnknown) should be empty")
	}
	if MethodBytes(MethodUnknown) != nil {
		t.Errorf("MethodBytes(MethodUnknown) should be nil")
	}
}

func TestIsValidMethodID(t *testing.T) {
	if !IsValidMethodID(MethodGET) {
		t.Errorf("IsValidMethodID(MethodGET) = false")
	}
	if IsValidMethodID(MethodUnknown) {
		t.Errorf("IsValidMethodID(MethodUnknown) = true")
	}
	if IsValidMethodID(200) {
		t.Errorf("IsValidMethodID(200) = true")
	}
}
