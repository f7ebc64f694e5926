package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/broady/restroutes"
	"github.com/broady/restroutes/testutil"
)

func TestLoggingInterceptor_Success(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	srv := testutil.NewServer(t).OnJSON("GET", "/system/jvm", map[string]string{"pid": "1"})
	client, err := restroutes.NewClient(srv.URL, restroutes.WithInterceptors(LoggingInterceptor(logger)))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.Send(context.Background(), restroutes.NewRequest(restroutes.MethodGet, "/system/jvm")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "request started") {
		t.Error("expected 'request started' in log output")
	}
	if !strings.Contains(logOutput, "request completed") {
		t.Error("expected 'request completed' in log output")
	}
	if !strings.Contains(logOutput, "GET /system/jvm") {
		t.Error("expected route in log output")
	}
	if !strings.Contains(logOutput, `"status":200`) {
		t.Error("expected status in log output")
	}
}

func TestLoggingInterceptor_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	interceptor := LoggingInterceptor(logger)

	testErr := errors.New("test error")
	next := func(req *http.Request) (*http.Response, error) {
		return nil, testErr
	}

	resp, err := interceptor(httptest.NewRequest("DELETE", "/system/inputs/1", nil), next)

	if err != testErr {
		t.Errorf("expected test error, got %v", err)
	}
	if resp != nil {
		t.Errorf("expected nil response, got %v", resp)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "request started") {
		t.Error("expected 'request started' in log output")
	}
	if !strings.Contains(logOutput, "request failed") {
		t.Error("expected 'request failed' in log output")
	}
	if !strings.Contains(logOutput, "test error") {
		t.Error("expected error message in log output")
	}
}

func TestLoggingInterceptor_ErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	srv := testutil.NewServer(t)
	client, err := restroutes.NewClient(srv.URL, restroutes.WithInterceptors(LoggingInterceptor(logger)))
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Send(context.Background(), restroutes.NewRequest(restroutes.MethodGet, "/missing"))
	if !restroutes.IsNotFound(err) {
		t.Fatalf("expected 404, got %v", err)
	}
	if !strings.Contains(buf.String(), `"level":"WARN"`) {
		t.Errorf("expected warning for 404, got %s", buf.String())
	}
}

func TestLoggingInterceptor_NilLogger(t *testing.T) {
	interceptor := LoggingInterceptor(nil)
	if interceptor == nil {
		t.Fatal("expected non-nil interceptor")
	}
}
