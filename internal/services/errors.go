package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/repository"
	"github.com/anishLS3/Placify-sub001/internal/workflow"
)

type (
	ValidationError        = workflow.ValidationError
	IllegalTransitionError = workflow.IllegalTransitionError
)

var (
	ErrNotFound               = errors.New("record not found")
	ErrConcurrentModification = errors.New("record was modified concurrently, reload and retry")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountLocked          = errors.New("account locked")
	ErrAccountDisabled        = errors.New("account disabled")
	ErrInvalidToken           = errors.New("invalid token")
)

// InvalidStateError is returned when an operation needs a status the record
// does not currently have, outside of a status transition.
type InvalidStateError struct {
	Resource string
	Status   string
	Message  string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// StoreError wraps a failure of the underlying record store. It is transient.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Temporary() bool { return true }

// AuditWriteError is logged when an audit entry cannot be persisted. It is
// never returned to callers.
type AuditWriteError struct {
	Action models.AuditAction
	Err    error
}

func (e *AuditWriteError) Error() string {
	return fmt.Sprintf("audit write %s: %v", e.Action, e.Err)
}

func (e *AuditWriteError) Unwrap() error { return e.Err }

// GateRejectedError is returned when the content gate refuses a submission.
type GateRejectedError struct {
	Reason string
}

func (e *GateRejectedError) Error() string { return "submission rejected: " + e.Reason }

func notFound(resource, id string) error {
	return fmt.Errorf("%s %s: %w", resource, id, ErrNotFound)
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// loadErr maps a repository lookup error to a service error.
func loadErr(resource, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(resource, id)
	}
	return storeErr("load "+resource, err)
}

// ErrorClass names the category of err for audit details and metrics.
func ErrorClass(err error) string {
	var (
		ve  *ValidationError
		ite *IllegalTransitionError
		ise *InvalidStateError
		se  *StoreError
		gre *GateRejectedError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ite):
		return "illegal_transition"
	case errors.As(err, &ise):
		return "invalid_state"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConcurrentModification):
		return "concurrent_modification"
	case errors.As(err, &gre):
		return "content_rejected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(err, &se):
		return "store"
	}
	return "internal"
}
