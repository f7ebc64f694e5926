package restroutes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the server answers with a non-2xx status.
// The full response envelope is kept for inspection.
type StatusError struct {
	Method   Method
	URL      string
	Response *Response

	// Message is extracted from a JSON error body, if the server sent one.
	Message string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Response.StatusCode, http.StatusText(e.Response.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// StatusCode returns the HTTP status of the failed response.
func (e *StatusError) StatusCode() int {
	return e.Response.StatusCode
}

// IsStatus reports whether err is a *StatusError with the given status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Response.StatusCode == code
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// errorBody matches the common JSON error shapes: {"message": ...},
// {"error": ...} and {"type": ..., "message": ...}.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newStatusError(method Method, url string, resp *Response) *StatusError {
	se := &StatusError{Method: method, URL: url, Response: resp}
	var body errorBody
	if json.Unmarshal(resp.Body, &body) == nil {
		se.Message = body.Message
		if se.Message == "" {
			se.Message = body.Error
		}
	}
	return se
}
