package restroutes

import (
	"encoding/base64"
	"net/http"
)

// Invoker sends a prepared HTTP request. It is the next step in an
// interceptor chain.
type Invoker func(req *http.Request) (*http.Response, error)

// Interceptor wraps request execution for every call made by a Client.
//
//	func timing(req *http.Request, next restroutes.Invoker) (*http.Response, error) {
//	    start := time.Now()
//	    resp, err := next(req)
//	    log.Printf("%s %s took %v", req.Method, req.URL, time.Since(start))
//	    return resp, err
//	}
//
// Interceptors can:
//   - Modify the request (headers, URL) before calling next
//   - Inspect the response after calling next
//   - Short-circuit by returning an error without calling next
type Interceptor func(req *http.Request, next Invoker) (*http.Response, error)

// chainInterceptors combines interceptors around final.
// The first interceptor in the slice is the outer-most one (runs first).
func chainInterceptors(interceptors []Interceptor, final Invoker) Invoker {
	chain := final
	for i := len(interceptors) - 1; i >= 0; i-- {
		current := interceptors[i]
		next := chain
		chain = func(req *http.Request) (*http.Response, error) {
			return current(req, next)
		}
	}
	return chain
}

// BasicAuthHeader returns the value of a Basic Authorization header for
// the given credentials: "Basic " + base64("<username>:<password>").
func BasicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// BasicAuth returns an interceptor that adds a Basic Authorization header
// to every request. The header value is stable for stable credentials.
func BasicAuth(username, password string) Interceptor {
	header := BasicAuthHeader(username, password)
	return func(req *http.Request, next Invoker) (*http.Response, error) {
		req.Header.Set("Authorization", header)
		return next(req)
	}
}

// HeaderInterceptor returns an interceptor that sets a fixed header on
// every request.
func HeaderInterceptor(key, value string) Interceptor {
	return func(req *http.Request, next Invoker) (*http.Response, error) {
		req.Header.Set(key, value)
		return next(req)
	}
}
