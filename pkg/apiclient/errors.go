package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
)

const (
	bodyOldPassword = "old_password incorrect"
	bodyJWTExpired  = "jwt expired"

	MsgGeneric      = "Something went wrong! Please try again later."
	MsgOldPassword  = "Mật khẩu hiện tại không đúng!"
	MsgUnauthorized = "You are not authorized to access this resource."
	MsgForbidden    = "You do not have permission to access this resource."
	MsgNotFound     = "The requested resource was not found."
	MsgServerBlank  = "Internal Server Error. Please check the console for details."
)

var ErrSessionExpired = errors.New("session expired")

// Error is a failed backend call. Status is 0 when no response arrived.
type Error struct {
	Endpoint string
	Status   int
	Body     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

func (e *Error) Unwrap() error { return e.Err }

func statusError(endpoint string, status int, body string) *Error {
	e := &Error{Endpoint: endpoint, Status: status, Body: body}
	e.Message = fmt.Sprintf("Something went wrong! Error Status: %d", status)
	switch status {
	case http.StatusBadRequest:
		switch body {
		case bodyOldPassword:
			e.Message = MsgOldPassword
		case bodyJWTExpired:
			e.Err = ErrSessionExpired
			e.Message = "Bad Request: " + body
		default:
			e.Message = "Bad Request: " + body
		}
	case http.StatusUnauthorized:
		e.Message = MsgUnauthorized
	case http.StatusForbidden:
		e.Message = MsgForbidden
	case http.StatusNotFound:
		e.Message = MsgNotFound
	case http.StatusInternalServerError:
		if strings.TrimSpace(body) != "" {
			e.Message = "Internal Server Error: " + body
		} else {
			e.Message = MsgServerBlank
		}
	}
	return e
}

func transportError(endpoint string, err error) *Error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("backend circuit open: %w", err)
	}
	return &Error{Endpoint: endpoint, Message: MsgGeneric, Err: err}
}

// Message is the user-facing text for any error returned by Client.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgGeneric
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
