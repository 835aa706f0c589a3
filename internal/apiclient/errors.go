package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Sentinel errors for errors.Is checks at the view boundary.
	ErrUnauthorized = errors.New("storefront: not authenticated")
	ErrForbidden    = errors.New("storefront: access forbidden")
	ErrNotFound     = errors.New("storefront: resource not found")
	ErrConflict     = errors.New("storefront: conflict")
	ErrTransport    = errors.New("storefront: host unreachable or transport failure")
	ErrServer       = errors.New("storefront: server error")
	ErrRejected     = errors.New("storefront: request rejected")
)

// DefaultMessage is surfaced when a failed response carries no message.
const DefaultMessage = "Something went wrong"

// RequestError is a network or HTTP failure. Message is the server's
// "message" field when the body carried one.
type RequestError struct {
	Method  string
	Path    string
	Status  int // 0 for transport failures
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: %s (HTTP %d)", e.Method, e.Path, e.Message, e.Status)
}

// Unwrap exposes the status sentinel (or ErrTransport) together with the
// underlying error, if any.
func (e *RequestError) Unwrap() error {
	sentinel := ErrTransport
	if e.Status != 0 {
		sentinel = sentinelFor(e.Status)
	}
	if e.Err == nil {
		return sentinel
	}
	return errors.Join(sentinel, e.Err)
}

func sentinelFor(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status >= 500:
		return ErrServer
	default:
		return ErrRejected
	}
}

// ParseError reports a response whose shape was not recognised.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// UserMessage returns the text a view should show for err.
func UserMessage(err error) string {
	var re *RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
