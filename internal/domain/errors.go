package domain

import "fmt"

// ============================================================
// Typed errors. The HTTP layer maps each to one status code.
// ============================================================

// ErrNotFound: no document with that id in the resource's collection.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ErrValidation rejects a request before anything is written.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string { return e.Message }

// ErrConflict covers duplicates, illegal state transitions and optimistic
// writes that kept losing the version race.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string { return e.Message }

// ErrInsufficientPoints is a loyalty deduction larger than the balance.
type ErrInsufficientPoints struct {
	Available int
	Required  int
}

func (e *ErrInsufficientPoints) Error() string {
	return fmt.Sprintf("insufficient loyalty points: have %d, need %d", e.Available, e.Required)
}

// ErrForbidden blocks an operation on a business rule. Reason is the
// user-facing message.
type ErrForbidden struct {
	Action string
	Reason string
}

func (e *ErrForbidden) Error() string {
	if e.Reason == "" {
		return "cannot " + e.Action
	}
	return e.Reason
}

// ErrUnauthorized is a bad credential or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// ============================================================
// Document store failures
// ============================================================

// ErrExternalService wraps a failure of the document store or Redis.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error { return e.Err }

// ErrTimeout is a store call that hit its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return e.Operation + ": deadline exceeded"
}

// ErrCircuitOpen is returned without calling the store while its breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return e.Service + ": circuit open, try again later"
}
