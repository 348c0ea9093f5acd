package altdetect

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a lookup matches no identity.
	ErrNotFound = errors.New("identity not found")

	// ErrNotInitialized is returned by operations called before a successful
	// Initialize or after Close.
	ErrNotInitialized = errors.New("store not initialized")
)

// StorageError represents a failed database operation.
type StorageError struct {
	Backend   string // BackendNameSQLite or BackendNameMySQL
	Operation string // Operation that failed ("upsert_identity", "purge_expired", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// InvalidArgumentError reports an empty or malformed argument.
type InvalidArgumentError struct {
	Argument string
	Reason   string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Argument, e.Reason)
}

// NewInvalidArgumentError creates a new InvalidArgumentError.
func NewInvalidArgumentError(argument, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Argument: argument, Reason: reason}
}

// IsStorageError reports whether err wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsInvalidArgument reports whether err wraps an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var ie *InvalidArgumentError
	return errors.As(err, &ie)
}
