package types

import (
	"errors"
	"fmt"
)

// Store lifecycle errors.
var (
	ErrStoreClosed    = errors.New("store is closed")
	ErrAlreadyOpen    = errors.New("store is already open")
	ErrStoreRequired  = errors.New("store is required")
	ErrCatalogMissing = errors.New("static catalog is unavailable")
)

// Entity validation errors.
var (
	ErrInvalidID           = errors.New("invalid entity ID")
	ErrInvalidCategory     = errors.New("invalid component category")
	ErrInvalidType         = errors.New("invalid component type")
	ErrInvalidSection      = errors.New("invalid composition section")
	ErrInvalidLimit        = errors.New("limit must not be negative")
	ErrInvalidScore        = errors.New("feedback score out of range")
	ErrInvalidFeedbackType = errors.New("invalid feedback type")
	ErrDuplicateID         = errors.New("duplicate entity ID")
	ErrDanglingReference   = errors.New("reference to unknown entity")
)

// Vector errors.
var (
	ErrEmptyVector       = errors.New("vector must not be empty")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Capability errors. Callers downgrade instead of failing when they see these.
var (
	ErrANNUnavailable      = errors.New("ANN vector index unavailable")
	ErrEmbedderUnavailable = errors.New("embedder unavailable")
)

// ConfigurationError reports a missing optional capability. The engine
// downgrades (brute force, or no semantic path) rather than failing.
type ConfigurationError struct {
	Capability string
	Err        error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %v", e.Capability, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IntegrityError reports a constraint violation on write.
type IntegrityError struct {
	Entity string
	ID     string
	Err    error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity: %s %s: %v", e.Entity, e.ID, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// TransientStoreError reports that the backing store could not be reached.
// Catalog loading and search fall back to the in-memory snapshot.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

// IsTransient reports whether err is, or wraps, a TransientStoreError.
func IsTransient(err error) bool {
	var te *TransientStoreError
	return errors.As(err, &te)
}
