package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// StatusError is a non-2xx response. Message is the backend's "message"
// field when the body carried one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// BackendMessage returns the server-provided message, if any.
func (e *StatusError) BackendMessage() string {
	return e.Message
}

// newStatusError builds a StatusError from a response. The returned error
// reports a non-empty body that is not a JSON message; the StatusError is
// usable either way.
func newStatusError(code int, body []byte) (*StatusError, error) {
	var m messageResponse
	if len(body) == 0 {
		return &StatusError{StatusCode: code}, nil
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return &StatusError{StatusCode: code}, err
	}
	return &StatusError{StatusCode: code, Message: m.Message}, nil
}
