package application

import (
	"errors"
	"fmt"

	"annotator/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrNotFound       = domain.ErrNotFound
	ErrInvalidKind    = errors.New("invalid annotation kind")
	ErrNotPermitted   = errors.New("not permitted")
	ErrNoSelection    = errors.New("no objects selected")
	ErrNotLoaded      = domain.ErrNotLoaded
	ErrStaleSelection = domain.ErrStaleSelection
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SaveError represents a failed save of a reconciled delta
type SaveError struct {
	Objects int
	Reason  string
	Err     error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("cannot save annotations of %d objects: %s", e.Objects, e.Reason)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
