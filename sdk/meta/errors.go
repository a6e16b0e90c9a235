package meta

import (
	"fmt"
	"strings"
	"time"
)

// ErrValidation represents an error wherein a request was rejected locally,
// before any network call, because one or more required fields were missing
// or malformed.
type ErrValidation struct {
	// Reason is a brief summary of what was wrong with the request.
	Reason string
	// Details enumerates individual problems, if there were more than one.
	Details []string
}

func (e *ErrValidation) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("Invalid request: %s", e.Reason)
	}
	msg := fmt.Sprintf("Invalid request: %s:", e.Reason)
	for i, detail := range e.Details {
		msg = fmt.Sprintf("%s\n  %d. %s", msg, i, detail)
	}
	return msg
}

// ErrAuthentication represents an error wherein the API server could not
// authenticate the request. This covers rejected credentials, invalid
// federated identity tokens, and rejected or expired refresh tokens.
type ErrAuthentication struct {
	// Reason is the explanation returned by the API server, if any.
	Reason string `json:"error"`
}

func (e *ErrAuthentication) Error() string {
	if e.Reason == "" {
		return "Could not authenticate the request."
	}
	return fmt.Sprintf("Could not authenticate the request: %s", e.Reason)
}

// ErrAuthorization represents an error wherein the request was authenticated
// but the principal lacks permission to carry it out.
type ErrAuthorization struct {
	Reason string `json:"error"`
}

func (e *ErrAuthorization) Error() string {
	return "The request is not authorized."
}

// ErrBadRequest represents an error wherein the API server rejected a request
// as malformed.
type ErrBadRequest struct {
	Reason  string   `json:"error"`
	Details []string `json:"details"`
}

func (e *ErrBadRequest) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("Bad request: %s", e.Reason)
	}
	msg := fmt.Sprintf("Bad request: %s:", e.Reason)
	for i, detail := range e.Details {
		msg = fmt.Sprintf("%s\n  %d. %s", msg, i, detail)
	}
	return msg
}

// ErrNotFound represents an error wherein a requested resource does not
// exist.
type ErrNotFound struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Reason string `json:"error"`
}

func (e *ErrNotFound) Error() string {
	if e.Type == "" {
		return "The requested resource was not found."
	}
	return fmt.Sprintf("%s %q not found.", e.Type, e.ID)
}

// ErrConflict represents an error wherein a request could not be completed
// because it conflicts with an existing resource.
type ErrConflict struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Reason string `json:"error"`
}

func (e *ErrConflict) Error() string {
	return e.Reason
}

// ErrInternalServer represents a failure within the API server itself.
type ErrInternalServer struct {
	Reason string `json:"error"`
}

func (e *ErrInternalServer) Error() string {
	return "An internal server error occurred."
}

// ErrNotSupported represents an error wherein a request cannot be completed
// because the functionality it depends on is not available.
type ErrNotSupported struct {
	Details string `json:"error"`
}

func (e *ErrNotSupported) Error() string {
	if e.Details == "" {
		return "The requested operation is not supported."
	}
	return e.Details
}

// ErrNetwork represents a transport failure: the request could not be sent or
// no response was received.
type ErrNetwork struct {
	Err error
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("error invoking API: %s", e.Err)
}

func (e *ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrUnexpectedContent represents an error wherein the API server responded
// successfully, but with a payload of a type the client cannot use.
type ErrUnexpectedContent struct {
	Expected string
	Actual   string
}

func (e *ErrUnexpectedContent) Error() string {
	actual := strings.TrimSpace(e.Actual)
	if actual == "" {
		actual = "no content type"
	}
	return fmt.Sprintf("Expected a response of type %s; received %s.", e.Expected, actual)
}

// ErrTimeoutExhausted represents an error wherein a polled operation did not
// complete within its attempt budget. The operation itself may still complete
// server-side.
type ErrTimeoutExhausted struct {
	Attempts int
	Elapsed  time.Duration
}

func (e *ErrTimeoutExhausted) Error() string {
	return fmt.Sprintf(
		"Gave up waiting after %d attempt(s) over %s; the operation may still "+
			"complete on the server.",
		e.Attempts,
		e.Elapsed,
	)
}
