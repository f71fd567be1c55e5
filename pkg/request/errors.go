package request

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a request that fails the structural check.
	ErrValidation = errors.New("invalid request")
	// ErrKeyNotFound marks a lookup of a field absent from the request.
	ErrKeyNotFound = errors.New("key not found")
	// ErrLineOutOfRange marks a line_num outside the file's contents.
	ErrLineOutOfRange = errors.New("line out of range")
	// ErrReadOnlyField marks a write to a field without a setter.
	ErrReadOnlyField = errors.New("field is read-only")
	// ErrInvalidValue marks a value of the wrong kind for its field.
	ErrInvalidValue = errors.New("invalid value")
)

// FieldError ties a failure to the field that produced it.
type FieldError struct {
	Key string
	Err error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Key, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(key string, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) && fe.Key == key {
		return err
	}
	return &FieldError{Key: key, Err: err}
}

// ValidationError describes the first structural problem found in a request.
// Path names the offending field, e.g. "file_data./tmp/a.py.contents".
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrValidation, e.Path, e.Reason)
}

// Is reports ErrValidation so callers can match with errors.Is.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
