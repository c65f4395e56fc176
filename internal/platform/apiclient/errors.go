package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed operation.
type Kind int

const (
	// KindUnexpected covers decode failures and programming errors.
	KindUnexpected Kind = iota
	// KindValidation is raised before any network call.
	KindValidation
	// KindServer is a non-2xx response other than 401.
	KindServer
	// KindUnauthorized is a 401; the session has already been invalidated.
	KindUnauthorized
	// KindNetwork means no response was received.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindUnauthorized:
		return "unauthorized"
	case KindNetwork:
		return "network"
	default:
		return "unexpected"
	}
}

// Operator-facing fallback messages.
const (
	MsgBadRequest    = "bad request"
	MsgConflict      = "already exists"
	MsgUnauthorized  = "session expired, please log in again"
	MsgNetwork       = "unable to reach the server, check your connection"
	MsgCancelled     = "request cancelled"
	MsgUnexpected    = "something went wrong"
	maxPlainMsgBytes = 200
)

// Error is the single error type returned by the client.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a client-side validation error.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...interface{}) error {
	return Validation(fmt.Sprintf(format, args...))
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Message returns the text to show the operator for any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return MsgUnexpected
}

func networkError(err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindNetwork, Message: MsgCancelled, Err: err}
	}
	return &Error{Kind: KindNetwork, Message: MsgNetwork, Err: err}
}

func unexpectedError(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: MsgUnexpected, Err: err}
}

// statusError builds the error for a non-2xx response.
func statusError(status int, body []byte) *Error {
	msg := extractMessage(body)
	if status == http.StatusUnauthorized {
		if msg == "" {
			msg = MsgUnauthorized
		}
		return &Error{Kind: KindUnauthorized, Status: status, Message: msg}
	}
	if msg == "" {
		msg = fallbackMessage(status)
	}
	return &Error{Kind: KindServer, Status: status, Message: msg}
}

func fallbackMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return MsgBadRequest
	case http.StatusConflict:
		return MsgConflict
	default:
		return fmt.Sprintf("request failed with status %d", status)
	}
}

var messageFields = []string{"message", "error", "detail"}

// extractMessage pulls a human message out of an error body. JSON objects
// are searched for the first non-empty string in messageFields; a bare JSON
// string or short plain-text body is used as-is.
func extractMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		for _, f := range messageFields {
			if s, ok := obj[f].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		return ""
	}

	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
		return strings.TrimSpace(s)
	}

	if strings.HasPrefix(trimmed, "<") || len(trimmed) > maxPlainMsgBytes {
		return ""
	}
	return trimmed
}
