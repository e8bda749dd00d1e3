package postify

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned by mutating operations called without a session.
var ErrNotAuthenticated = errors.New("not logged in")

// Validation sentinels. Each is a *ValidationError, so callers can match either
// the specific failure with errors.Is or the class with errors.As.
var (
	ErrEmptyPost          = &ValidationError{Field: "post", Reason: "add text or an image"}
	ErrEmptyComment       = &ValidationError{Field: "comment", Reason: "comment text is empty"}
	ErrImageTooLarge      = &ValidationError{Field: "image", Reason: "image exceeds the size limit"}
	ErrNotAnImage         = &ValidationError{Field: "image", Reason: "file is not an image"}
	ErrMissingCredentials = &ValidationError{Field: "credentials", Reason: "email and password are required"}
	ErrMissingUsername    = &ValidationError{Field: "username", Reason: "username is required"}
)

// ValidationError is a local input failure detected before any remote call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthError carries the backend's message for a failed login or signup.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %v", e.Err)
	}
	return "authentication failed"
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a failed feed refresh. The feed keeps its previous contents.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching posts: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ActionError reports a failed create, like or comment call.
type ActionError struct {
	Action  string // "create post", "toggle like", "add comment"
	Message string // backend-provided message, if any
	Err     error
}

func (e *ActionError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Action, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Action, e.Err)
	default:
		return e.Action + " failed"
	}
}

func (e *ActionError) Unwrap() error { return e.Err }

// MessageCarrier is implemented by backend errors that carry a
// human-readable message from the server.
type MessageCarrier interface {
	BackendMessage() string
}

// backendMessage extracts the server message from err, if it carries one.
func backendMessage(err error) string {
	var mc MessageCarrier
	if errors.As(err, &mc) {
		return mc.BackendMessage()
	}
	return ""
}
