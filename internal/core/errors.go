package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrSchemaMismatch     = errors.New("incompatible schema")
	ErrCorruptRow         = errors.New("corrupt row")
	ErrModifiedExternally = errors.New("file modified by another process")
)

// StorageError reports a failure to read, parse or write the backing store.
type StorageError struct {
	Op   string // load, create, write, ...
	Path string
	Line int // 1-based line for parse failures, 0 otherwise
	Err  error
}

func (e *StorageError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("storage %s %s line %d: %v", e.Op, e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError reports malformed user input such as a date-range bound.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsStorage reports whether err is or wraps a *StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
