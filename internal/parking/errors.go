package parking

import (
	"errors"
	"fmt"
)

// Store contract sentinels. Implementations return these (possibly wrapped)
// so orchestrators can tell a lost conditional write from an outage.
var (
	ErrNotFound        = errors.New("record not found")
	ErrAlreadyExists   = errors.New("record already exists")
	ErrConditionFailed = errors.New("conditional write failed")
)

type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindPayment      Kind = "PAYMENT_ERROR"
	KindDatabase     Kind = "DATABASE_ERROR"
	KindUnauthorized Kind = "UNAUTHORIZED"
)

// Error is a domain failure rendered to callers with its Kind preserved.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(msg string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

func NotFoundError(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func ConflictError(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func PaymentError(msg string, err error) *Error {
	return &Error{Kind: KindPayment, Message: msg, Err: err}
}

func DatabaseError(op string, err error) *Error {
	return &Error{Kind: KindDatabase, Message: op + " failed", Err: err}
}

func UnauthorizedError(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}
