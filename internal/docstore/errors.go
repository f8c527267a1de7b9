package docstore

import (
	"errors"
	"fmt"
)

// ErrValidation marks a request rejected before any remote call: bad
// names, path traversal, malformed base64. Never retried.
var ErrValidation = errors.New("docstore: validation failed")

// ErrNotFound marks a missing file or folder on operations that have no
// not-found result shape of their own.
var ErrNotFound = errors.New("docstore: not found")

// OperationError is a remote operation that failed for good, after any
// retries.
type OperationError struct {
	Operation string
	Detail    string // usually the library path
	Err       error
}

func (e *OperationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
	}

	return fmt.Sprintf("%s %s failed: %v", e.Operation, e.Detail, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func opError(op, detail string, err error) error {
	return &OperationError{Operation: op, Detail: detail, Err: err}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
