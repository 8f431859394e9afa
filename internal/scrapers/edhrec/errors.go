package edhrec

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type ErrorKind int

const (
	KindUpstream ErrorKind = iota
	KindNotFound
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	default:
		return "upstream"
	}
}

type kindError ErrorKind

func (k kindError) Error() string {
	return "edhrec: " + ErrorKind(k).String()
}

// Sentinels matching any *Error of the same kind through errors.Is.
var (
	ErrUpstream   error = kindError(KindUpstream)
	ErrNotFound   error = kindError(KindNotFound)
	ErrValidation error = kindError(KindValidation)
)

// Error is the failure type returned by fetchers and the resolver.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	URL     string
	Details string
	// Status is the upstream HTTP status, 0 when no response was received.
	Status    int
	Attempted []string
	Available []string
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.URL != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.URL)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	k, ok := target.(kindError)
	return ok && ErrorKind(k) == e.Kind
}

type ErrorPayload struct {
	Message   string   `json:"message"`
	URL       string   `json:"url,omitempty"`
	Details   string   `json:"details,omitempty"`
	Code      string   `json:"code,omitempty"`
	Attempted []string `json:"attempted,omitempty"`
	Available []string `json:"available_brackets,omitempty"`
}

func (e *Error) Payload() *ErrorPayload {
	return &ErrorPayload{
		Message:   e.Message,
		URL:       e.URL,
		Details:   e.Details,
		Code:      e.Code,
		Attempted: e.Attempted,
		Available: e.Available,
	}
}

func NewNotFoundError(url, message string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: message, URL: url, Status: 404}
}

func NewUpstreamError(url string, status int, message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Code: "UPSTREAM_ERROR", Message: message, URL: url, Status: status, Err: cause}
}

func NewValidationError(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// AsError converts any error into an *Error, classifying foreign errors
// with Classify.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var target *Error
	if errors.As(err, &target) {
		return target
	}
	return &Error{Kind: Classify(err), Message: err.Error(), Err: err}
}

// Classify maps an arbitrary error to a kind. Deadlines, transport failures
// and anything else unrecognized count as upstream failures.
func Classify(err error) ErrorKind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindUpstream
}

// IsTimeout reports whether err came from a deadline or a network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
