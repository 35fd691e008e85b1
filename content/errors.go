package content

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable signals that the content store could not be reached
	// or its contents could not be parsed.
	ErrStoreUnavailable = errors.New("content store unavailable")
	// ErrInvalidSpec signals a query that no store can execute.
	ErrInvalidSpec = errors.New("invalid query")
)

// UnavailableError carries the store operation and the underlying cause of an
// ErrStoreUnavailable failure.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrStoreUnavailable.Error(), e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable.Error(), e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is matches ErrStoreUnavailable.
func (e *UnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

// Unavailable wraps err as a store failure of op. Errors that already report
// ErrStoreUnavailable are returned unchanged.
func Unavailable(op string, err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return &UnavailableError{Op: op, Err: err}
}
