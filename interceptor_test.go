package restroutes

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okInvoker(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusOK)
	return rec.Result(), nil
}

func TestChainInterceptors_Empty(t *testing.T) {
	chain := chainInterceptors(nil, okInvoker)
	resp, err := chain(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestChainInterceptors_Order(t *testing.T) {
	var order []string

	record := func(name string) Interceptor {
		return func(req *http.Request, next Invoker) (*http.Response, error) {
			order = append(order, "before-"+name)
			resp, err := next(req)
			order = append(order, "after-"+name)
			return resp, err
		}
	}

	final := func(req *http.Request) (*http.Response, error) {
		order = append(order, "send")
		return okInvoker(req)
	}

	chain := chainInterceptors([]Interceptor{record("1"), record("2")}, final)
	if _, err := chain(httptest.NewRequest("GET", "/", nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"before-1", "before-2", "send", "after-2", "after-1"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(order), order)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("at index %d: expected %s, got %s", i, v, order[i])
		}
	}
}

func TestChainInterceptors_ShortCircuit(t *testing.T) {
	sent := false
	final := func(req *http.Request) (*http.Response, error) {
		sent = true
		return okInvoker(req)
	}
	denied := errors.New("denied")
	deny := func(req *http.Request, next Invoker) (*http.Response, error) {
		return nil, denied
	}

	_, err := chainInterceptors([]Interceptor{deny}, final)(httptest.NewRequest("GET", "/", nil))
	if !errors.Is(err, denied) {
		t.Errorf("expected denied error, got %v", err)
	}
	if sent {
		t.Error("request should not have been sent")
	}
}

func TestBasicAuthHeader(t *testing.T) {
	tests := []struct {
		user, pass string
		want       string
	}{
		{"admin", "secret", "Basic YWRtaW46c2VjcmV0"},
		{"", "", "Basic Og=="},
		{"user:x", "p", "Basic dXNlcjp4OnA="},
	}
	for _, tt := range tests {
		if got := BasicAuthHeader(tt.user, tt.pass); got != tt.want {
			t.Errorf("BasicAuthHeader(%q, %q) = %q, want %q", tt.user, tt.pass, got, tt.want)
		}
	}
	if BasicAuthHeader("admin", "secret") != BasicAuthHeader("admin", "secret") {
		t.Error("header must be stable for stable credentials")
	}
}

func TestBasicAuth(t *testing.T) {
	var got string
	final := func(req *http.Request) (*http.Response, error) {
		got = req.Header.Get("Authorization")
		return okInvoker(req)
	}

	chain := chainInterceptors([]Interceptor{BasicAuth("admin", "secret")}, final)
	if _, err := chain(httptest.NewRequest("GET", "/", nil)); err != nil {
		t.Fatal(err)
	}
	if got != "Basic YWRtaW46c2VjcmV0" {
		t.Errorf("Authorization = %q", got)
	}
}
