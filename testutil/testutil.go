// Package testutil provides a recording HTTP server for testing clients
// built on restroutes, including generated routers.
// This package is designed to be import-cycle safe and can be used from any package.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// RecordedRequest is a request received by a Server.
type RecordedRequest struct {
	Method string
	Path   string // escaped path
	Query  string
	Header http.Header
	Body   []byte
}

// DecodeJSON decodes the recorded body into v.
func (r RecordedRequest) DecodeJSON(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("failed to decode request body: %v\nBody: %s", err, r.Body)
	}
}

// Reply is a canned response.
type Reply struct {
	Status int
	Header map[string]string
	Body   string
}

// Server is an httptest server that records every request and answers
// with canned replies keyed by "METHOD /escaped/path".
// Unknown routes answer 404.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	replies  map[string]Reply
	requests []RecordedRequest
}

// NewServer starts a recording server. It is closed when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{replies: make(map[string]Reply)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// On registers a reply for method and escaped path.
func (s *Server) On(method, path string, reply Reply) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[method+" "+path] = reply
	return s
}

// OnJSON registers a 200 reply with v encoded as JSON.
func (s *Server) OnJSON(method, path string, v any) *Server {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return s.On(method, path, Reply{
		Status: http.StatusOK,
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   string(data),
	})
}

// Requests returns a copy of all recorded requests.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request or fails the test.
func (s *Server) LastRequest(t *testing.T) RecordedRequest {
	t.Helper()
	reqs := s.Requests()
	if len(reqs) == 0 {
		t.Fatal("no requests recorded")
	}
	return reqs[len(reqs)-1]
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := r.URL.EscapedPath()

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	reply, ok := s.replies[r.Method+" "+path]
	s.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"type":"ApiError","message":"no route for `+r.Method+" "+path+`"}`)
		return
	}
	for k, v := range reply.Header {
		w.Header().Set(k, v)
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply.Body)
}

// AssertRequest checks method and escaped path of a recorded request.
func AssertRequest(t *testing.T, r RecordedRequest, method, path string) {
	t.Helper()
	if r.Method != method || r.Path != path {
		t.Errorf("expected request %s %s, got %s %s", method, path, r.Method, r.Path)
	}
}

// AssertHeader checks that a recorded request header has the expected value.
func AssertHeader(t *testing.T, r RecordedRequest, key, expectedValue string) {
	t.Helper()
	if actual := r.Header.Get(key); actual != expectedValue {
		t.Errorf("expected header %s=%s, got %s", key, expectedValue, actual)
	}
}

// AssertJSONBody compares the recorded body with expected, ignoring formatting.
func AssertJSONBody(t *testing.T, r RecordedRequest, expected any) {
	t.Helper()

	expectedJSON, _ := json.Marshal(expected)
	var expectedData, actualData any
	json.Unmarshal(expectedJSON, &expectedData)
	if err := json.Unmarshal(r.Body, &actualData); err != nil {
		t.Fatalf("request body is not JSON: %v\nBody: %s", err, r.Body)
	}

	expectedStr, _ := json.MarshalIndent(expectedData, "", "  ")
	actualStr, _ := json.MarshalIndent(actualData, "", "  ")
	if string(expectedStr) != string(actualStr) {
		t.Errorf("request body mismatch:\nExpected:\n%s\nActual:\n%s", expectedStr, actualStr)
	}
}

// AssertContains fails if s does not contain every one of substrs.
func AssertContains(t *testing.T, s string, substrs ...string) {
	t.Helper()
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			t.Errorf("expected output to contain %q\n---\n%s", sub, s)
		}
	}
}
