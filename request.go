package restroutes

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
)

var queryEncoder = schema.NewEncoder()

func init() {
	queryEncoder.SetAliasTag("query")
}

// Request describes one call against a route: method, path template,
// path parameter values and an optional payload.
//
// Requests are built by generated route groups:
//
//	req := restroutes.NewRequest(restroutes.MethodPost, "/system/inputs/{inputId}/launch").
//	    PathParam("inputId", inputID)
type Request struct {
	method  Method
	path    string
	params  map[string]string
	body    any
	hasBody bool
	query   url.Values
	header  http.Header
}

// NewRequest creates a request for the path template path.
func NewRequest(method Method, path string) *Request {
	return &Request{
		method: method,
		path:   path,
		params: make(map[string]string),
		query:  make(url.Values),
		header: make(http.Header),
	}
}

// Method returns the request method.
func (r *Request) Method() Method { return r.method }

// Path returns the unexpanded path template.
func (r *Request) Path() string { return r.path }

// PathParam binds value to the {name} placeholder of the path template.
// Values are formatted with fmt.Sprint and path-escaped.
func (r *Request) PathParam(name string, value any) *Request {
	r.params[name] = fmt.Sprint(value)
	return r
}

// Body sets the request payload. It is encoded as JSON.
func (r *Request) Body(v any) *Request {
	r.body = v
	r.hasBody = true
	return r
}

// ExpandPath substitutes every {name} placeholder in the path template.
// A placeholder without a bound value is an error.
func (r *Request) ExpandPath() (string, error) {
	var b strings.Builder
	rest := r.path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := closingBrace(rest, open)
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in path %q", r.path)
		}

		name := rest[open+1 : end]
		// JAX-RS style templates may carry a regex: {id: [0-9]+}
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = strings.TrimSpace(name[:i])
		}
		value, ok := r.params[name]
		if !ok {
			return "", fmt.Errorf("no value for path parameter %q in %q", name, r.path)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(value))
		rest = rest[end+1:]
	}
}

// closingBrace returns the index of the '}' matching the '{' at open, or
// -1. Regex quantifiers such as {3} nest inside a placeholder.
func closingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// RequestOption adjusts a request before it is sent. Generated methods
// accept options so callers can add details the route model does not
// describe, such as query parameters.
type RequestOption func(*Request) error

// Query encodes the fields of struct v as query parameters using
// gorilla/schema. Field names come from the `query` tag.
//
//	type listInputs struct {
//	    Global bool `query:"global"`
//	}
//	api.Inputs().List(ctx, restroutes.Query(listInputs{Global: true}))
func Query(v any) RequestOption {
	return func(r *Request) error {
		if err := queryEncoder.Encode(v, r.query); err != nil {
			return fmt.Errorf("encode query: %w", err)
		}
		return nil
	}
}

// QueryParam adds a single query parameter.
func QueryParam(key, value string) RequestOption {
	return func(r *Request) error {
		r.query.Add(key, value)
		return nil
	}
}

// Header sets a request header.
func Header(key, value string) RequestOption {
	return func(r *Request) error {
		r.header.Set(key, value)
		return nil
	}
}
