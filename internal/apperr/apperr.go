// Package apperr defines the error taxonomy shared by the services and the HTTP layer.
// Services return these errors (possibly wrapped with %w); handlers map the Kind to a status code.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for propagation to the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

// Error is a classified application error with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches errors by code so that a freshly built error compares equal to a sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

// HTTPStatus returns the status code that represents the error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Code: "validation_error", Message: msg}
}
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Code: "not_found", Message: msg} }
func Conflict(msg string) error { return &Error{Kind: KindConflict, Code: "conflict", Message: msg} }
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Code: "unauthorized", Message: msg}
}
func Forbidden(msg string) error { return &Error{Kind: KindForbidden, Code: "forbidden", Message: msg} }

var (
	ErrAlreadyAssigned    = &Error{Kind: KindConflict, Code: "already_assigned", Message: "complaint is already assigned to an agent"}
	ErrAgentAtCapacity    = &Error{Kind: KindConflict, Code: "agent_at_capacity", Message: "agent has reached the maximum number of active assignments"}
	ErrNotPending         = &Error{Kind: KindConflict, Code: "not_pending", Message: "only pending complaints can be assigned"}
	ErrInvalidTransition  = &Error{Kind: KindConflict, Code: "invalid_transition", Message: "status change is not allowed"}
	ErrNotResolved        = &Error{Kind: KindConflict, Code: "not_resolved", Message: "feedback can only be given for resolved complaints"}
	ErrNotEditable        = &Error{Kind: KindConflict, Code: "not_editable", Message: "complaint can only be edited while pending"}
	ErrFeedbackExists     = &Error{Kind: KindConflict, Code: "feedback_exists", Message: "feedback already submitted for this complaint"}
	ErrEmailTaken         = &Error{Kind: KindConflict, Code: "email_taken", Message: "email is already registered"}
	ErrComplaintNotFound  = &Error{Kind: KindNotFound, Code: "complaint_not_found", Message: "complaint not found"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Code: "user_not_found", Message: "user not found"}
	ErrAssignmentNotFound = &Error{Kind: KindNotFound, Code: "assignment_not_found", Message: "assignment not found"}
	ErrFeedbackNotFound   = &Error{Kind: KindNotFound, Code: "feedback_not_found", Message: "feedback not found"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Code: "invalid_credentials", Message: "invalid email or password"}
	ErrTokenInvalid       = &Error{Kind: KindUnauthorized, Code: "token_invalid", Message: "token is invalid or expired"}
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
