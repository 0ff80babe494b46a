package domain

import "errors"

// Store errors
var (
	ErrTenantNotFound         = errors.New("tenant not found")
	ErrModuleInstanceNotFound = errors.New("module instance not found")
	ErrPrincipalNotFound      = errors.New("principal not found")
	ErrMembershipNotFound     = errors.New("membership not found")
	ErrFacilityNotFound       = errors.New("facility not found")
	ErrMenuNotFound           = errors.New("menu not found")
	ErrAlreadyExists          = errors.New("record already exists")
)

// Kind classifies an error independently of the transport that reports it.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation_failed"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal_error"
)

// Error carries a Kind and a caller-safe message. The wrapped error is for
// logs only and is never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates a kinded error.
func NewError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError attaches a kind and message to err. An existing kind on err wins.
func WrapError(err error, kind Kind, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Kind: existing.Kind, Message: msg, Err: err}
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the kind of err, or KindInternal for unkinded errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Access-control errors. Their messages are deliberately generic: they must
// not reveal whether a tenant, module, principal or entity exists.
var (
	ErrUnauthenticated      = NewError(KindUnauthenticated, "authentication required")
	ErrAuthenticationFailed = NewError(KindUnauthenticated, "invalid email or password")
	ErrForbidden            = NewError(KindForbidden, "access denied")
	ErrNotFound             = NewError(KindNotFound, "not found")
)
