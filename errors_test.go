package restroutes

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewStatusError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"message field", `{"type":"ApiError","message":"not found"}`, "not found"},
		{"error field", `{"error":"boom"}`, "boom"},
		{"not json", `<html>oops</html>`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &Response{StatusCode: http.StatusNotFound, Body: []byte(tt.body)}
			se := newStatusError(MethodGet, "http://x/y", resp)
			if se.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", se.Message, tt.wantMsg)
			}
		})
	}
}

func TestStatusError_Error(t *testing.T) {
	se := &StatusError{
		Method:   MethodGet,
		URL:      "http://graylog/system",
		Response: &Response{StatusCode: http.StatusForbidden},
	}
	expected := "GET http://graylog/system: 403 Forbidden"
	if se.Error() != expected {
		t.Errorf("expected %q, got %q", expected, se.Error())
	}

	se.Message = "no permission"
	if se.Error() != expected+": no permission" {
		t.Errorf("unexpected %q", se.Error())
	}
}

func TestIsStatus(t *testing.T) {
	se := &StatusError{Method: MethodGet, URL: "u", Response: &Response{StatusCode: http.StatusNotFound}}
	wrapped := fmt.Errorf("load radio: %w", se)

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through wrapping")
	}
	if IsStatus(wrapped, http.StatusAccepted) {
		t.Error("IsStatus matched the wrong code")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("plain errors are not status errors")
	}
}

func TestResponse_Decode(t *testing.T) {
	var v struct{ A int }
	if err := (&Response{}).Decode(&v); err != nil {
		t.Errorf("empty body should decode to nothing: %v", err)
	}
	if err := (&Response{Body: []byte(`{"A":3}`)}).Decode(&v); err != nil || v.A != 3 {
		t.Errorf("decode = %v, %+v", err, v)
	}
	if err := (&Response{Body: []byte(`{`)}).Decode(&v); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
