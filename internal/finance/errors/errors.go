package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindForbidden
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is the single failure type returned by services. Msg is safe to show
// to the caller, Err is the underlying cause and is only meant for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewNotFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func NewBadRequestError(msg string) error {
	return &Error{Kind: KindBadRequest, Msg: msg}
}

func NewForbiddenError(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func NewConflictError(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func NewUnauthorizedError(msg string) error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

func NewInternalError(msg string, cause error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: cause}
}

// KindOf reports the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if IsValidationErrors(err) {
		return KindBadRequest
	}
	return KindInternal
}

// Message returns the caller-facing message for err, never the internal cause.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Kind == KindInternal && appErr.Msg == "" {
			return "Internal server error"
		}
		return appErr.Msg
	}
	if IsValidationErrors(err) {
		return "Validation errors occurred"
	}
	return "Internal server error"
}

func StatusCode(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

type ValidationErrors struct {
	Errors []error
}

func (ve *ValidationErrors) Error() string {
	errorMessages := ve.Messages()
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(errorMessages, "; "))
}

func (ve *ValidationErrors) Add(msg string) {
	ve.Errors = append(ve.Errors, errors.New(msg))
}

func (ve *ValidationErrors) Messages() []string {
	errorMessages := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		errorMessages[i] = err.Error()
	}
	return errorMessages
}

// OrNil returns ve when at least one error was collected.
func (ve *ValidationErrors) OrNil() error {
	if len(ve.Errors) == 0 {
		return nil
	}
	return ve
}

func IsValidationErrors(err error) bool {
	var validationErrors *ValidationErrors
	ok := errors.As(err, &validationErrors)
	return ok
}
