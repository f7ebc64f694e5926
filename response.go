package restroutes

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the generic response envelope. Generated methods return it
// when the route declares no concrete result type.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.StatusCode
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
