package fna

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHeader is returned by Save before a header identity is established.
	ErrNoHeader = errors.New("no fna header loaded")
	// ErrStaleSelection is returned by Load when a newer client selection superseded it.
	ErrStaleSelection = errors.New("client selection superseded")
	// ErrUnknownField indicates a field name outside the header.
	ErrUnknownField = errors.New("unknown field")
	// ErrFieldKind indicates a value whose type does not match the field kind.
	ErrFieldKind = errors.New("value does not match field kind")
)

// FetchError wraps a failed list or load.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// SaveError wraps a failed save. Its message is the underlying message unchanged.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string { return e.Err.Error() }

func (e *SaveError) Unwrap() error { return e.Err }

// FieldError reports a draft value that could not be coerced.
type FieldError struct {
	Field Field
	Label string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Label, e.Err) }

func (e *FieldError) Unwrap() error { return e.Err }
