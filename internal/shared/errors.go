package shared

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch without matching strings.
type Kind string

const (
	// KindValidation covers missing fields, disallowed targets and invoicing non-sold units.
	KindValidation Kind = "validation"
	// KindLocked means the target is verified and no valid override was supplied.
	KindLocked Kind = "locked"
	// KindAuthorization means override credentials were missing or wrong.
	KindAuthorization Kind = "authorization"
	// KindNotFound means the record is absent or outside the caller's tenant.
	KindNotFound Kind = "not_found"
	// KindConflict means a uniqueness rule rejected the write.
	KindConflict Kind = "conflict"
	// KindStore wraps failures of the underlying record store.
	KindStore Kind = "store"
)

// Sentinels usable with errors.Is.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrLocked        = &Error{Kind: KindLocked}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrStore         = &Error{Kind: KindStore}
)

// Error is the typed error returned by every core operation.
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
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels compare by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// KindOf returns the kind of the outermost *Error in the chain, or KindStore
// when err carries no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// Validation builds a validation error.
func Validation(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Locked builds a lock error, optionally wrapping the failed authorization.
func Locked(op, message string, cause error) error {
	return &Error{Kind: KindLocked, Op: op, Message: message, Err: cause}
}

// Unauthorized builds a generic authorization error.
func Unauthorized(op string) error {
	return &Error{Kind: KindAuthorization, Op: op, Message: "authorization failed"}
}

// NotFound builds a not-found error for the named entity.
func NotFound(op, entity string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: entity + " not found"}
}

// Conflict builds a uniqueness conflict error.
func Conflict(op, format string, args ...any) error {
	return &Error{Kind: KindConflict, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Store wraps an infrastructure failure. Errors that already carry a kind are
// returned unchanged.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindStore, Op: op, Message: "store failure", Err: err}
}

// UserSafeMessage renders an error for end users without leaking store internals.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindStore {
		return "internal error, please try again"
	}
	if e.Kind == KindAuthorization {
		return "authorization failed"
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}
