// Package restroutes is the transport used by generated route groups and
// routers.
//
// A Client is the single transport handle a generated router holds. It
// knows the server base URL, sends JSON requests built from route path
// templates, and runs a chain of interceptors (authentication, logging)
// around every call.
//
//	client, err := restroutes.NewBasicAuthClient("http://graylog:12900", "admin", "secret")
//	if err != nil {
//	    return err
//	}
//	api := server.NewServerAPI(client)
//	overview, err := api.System().System(ctx)
package restroutes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Client sends requests for generated routes against one server.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	interceptors []Interceptor
	logger       *slog.Logger
	invoke       Invoker
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
// If not set, http.DefaultClient is used.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithInterceptors appends interceptors to the client's chain.
// Interceptors run in the order given, before the request is sent.
func WithInterceptors(interceptors ...Interceptor) ClientOption {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}

// WithBasicAuth adds the BasicAuth interceptor for username and password.
func WithBasicAuth(username, password string) ClientOption {
	return WithInterceptors(BasicAuth(username, password))
}

// WithLogger sets the logger used for transport diagnostics.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{baseURL: u}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.invoke = chainInterceptors(c.interceptors, c.httpClient.Do)
	return c, nil
}

// NewBasicAuthClient creates a client that authenticates every request
// with HTTP Basic credentials.
func NewBasicAuthClient(baseURL, username, password string, opts ...ClientOption) (*Client, error) {
	return NewClient(baseURL, append([]ClientOption{WithBasicAuth(username, password)}, opts...)...)
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Send performs req and returns the response envelope.
// A non-2xx status yields a *StatusError carrying the envelope.
func (c *Client) Send(ctx context.Context, req *Request, opts ...RequestOption) (*Response, error) {
	for _, opt := range opts {
		if err := opt(req); err != nil {
			return nil, err
		}
	}

	target, err := c.resolve(req)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.hasBody {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method.String(), target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.hasBody {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.invoke(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, target, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", req.method, target, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.DebugContext(ctx, "request failed",
			slog.String("method", req.method.String()),
			slog.String("url", target),
			slog.Int("status", resp.StatusCode))
		return resp, newStatusError(req.method, target, resp)
	}
	return resp, nil
}

// Decode performs req and unmarshals the JSON response body into out.
func (c *Client) Decode(ctx context.Context, req *Request, out any, opts ...RequestOption) error {
	resp, err := c.Send(ctx, req, opts...)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) resolve(req *Request) (string, error) {
	path, err := req.ExpandPath()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	target := c.baseURL.Scheme + "://" + c.baseURL.Host + c.baseURL.EscapedPath() + path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}
	return target, nil
}
