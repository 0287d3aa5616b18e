// Package apperr defines the error taxonomy shared by the services and the
// HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of a failure.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindVerification    Kind = "verification"
	KindEntitlement     Kind = "entitlement"
	KindUnauthenticated Kind = "unauthenticated"
	KindUpstream        Kind = "upstream"
)

// Sentinels for errors.Is checks.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrVerification    = errors.New("verification failed")
	ErrEntitlement     = errors.New("pro subscription required")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUpstream        = errors.New("upstream failure")
)

// Error is a categorised failure. Message is safe to show to callers; Err is not.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind, then falls back to the wrapped error.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if s, ok := sentinels[e.Kind]; ok && s == target {
		return true
	}
	return errors.Is(e.Err, target)
}

var sentinels = map[Kind]error{
	KindValidation:      ErrValidation,
	KindNotFound:        ErrNotFound,
	KindVerification:    ErrVerification,
	KindEntitlement:     ErrEntitlement,
	KindUnauthenticated: ErrUnauthenticated,
	KindUpstream:        ErrUpstream,
}

// Validation reports a missing or invalid caller-supplied field.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent row, or one not owned by the caller.
func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// Verification wraps a webhook signature or decode failure.
func Verification(err error) error {
	return &Error{Kind: KindVerification, Message: "signature verification failed", Err: err}
}

// EntitlementRequired is returned when a free user calls a pro-only operation.
func EntitlementRequired() error {
	return &Error{Kind: KindEntitlement, Message: "Pro subscription required"}
}

// Unauthenticated reports that no caller identity could be resolved.
func Unauthenticated(message string) error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Upstream wraps a store or remote-service failure. message is what callers see.
func Upstream(op, message string, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUpstream for uncategorised errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// PublicMessage returns the message safe to return to a client.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus maps err onto a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindVerification:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindEntitlement:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
