package calico

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrCircularReference indicates a value contains itself.
	ErrCircularReference = errors.New("circular reference")

	// ErrTypeMismatch indicates a value has the wrong shape for the requested format.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidArgument indicates an option outside its allowed range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSyntax indicates the input text could not be parsed.
	ErrSyntax = errors.New("syntax error")

	// ErrSerialization indicates a value is not representable in the target format.
	ErrSerialization = errors.New("serialization failed")

	// ErrValidation indicates a value failed schema validation.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedFormat indicates no codec is registered for a format or
	// the codec cannot perform the requested direction.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrWorkerClosed indicates an operation was rejected because its worker shut down.
	ErrWorkerClosed = errors.New("worker closed")

	// ErrWorkerFailed indicates the worker crashed while running an operation.
	ErrWorkerFailed = errors.New("worker failed")

	// ErrInvalidTag indicates a struct tag has an invalid format or value.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrMissingHasher indicates a tag names a hasher that is not registered.
	ErrMissingHasher = errors.New("missing hasher")

	// ErrMissingMasker indicates a tag names a masker that is not registered.
	ErrMissingMasker = errors.New("missing masker")

	// ErrHash indicates hashing of a field failed.
	ErrHash = errors.New("hash failed")
)

// CircularReferenceError reports where a value first refers back to one of
// its ancestors.
type CircularReferenceError struct {
	Path string // e.g. root.items[2].parent
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference detected at path '%s' - object references itself", e.Path)
}

func (e *CircularReferenceError) Unwrap() error {
	return ErrCircularReference
}

// TypeMismatchError reports a value whose kind does not fit the format.
type TypeMismatchError struct {
	Index int    // Offending element index, or -1 for the value itself
	Want  string // Expected shape
	Got   string // Actual shape
}

func (e *TypeMismatchError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("expected %s, got %s at index %d", e.Want, e.Got, e.Index)
	}
	return fmt.Sprintf("expected %s, got %s", e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// NewTypeMismatch creates a TypeMismatchError for a whole value.
func NewTypeMismatch(want string, got Kind) error {
	return &TypeMismatchError{Index: -1, Want: want, Got: got.String()}
}

// NewElementTypeMismatch creates a TypeMismatchError for one element of a sequence.
func NewElementTypeMismatch(index int, want string, got Kind) error {
	return &TypeMismatchError{Index: index, Want: want, Got: got.String()}
}

// SyntaxError represents a parse failure. Line and Column are 1-based and
// zero when the format or failure has no position.
type SyntaxError struct {
	Format string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	name := strings.ToUpper(e.Format)
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("invalid %s at line %d, column %d: %s", name, e.Line, e.Column, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("invalid %s at line %d: %s", name, e.Line, e.Msg)
	default:
		return fmt.Sprintf("invalid %s: %s", name, e.Msg)
	}
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// ValidationError carries the first violation found by a schema check.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "validation failed"
	}
	return fmt.Sprintf("field '%s' is invalid: %s", e.Path, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConfigError represents a converter configuration error.
// It wraps a sentinel error with additional context about the field and algorithm.
type ConfigError struct {
	Err       error  // Underlying sentinel error (ErrMissingHasher, etc.)
	Field     string // Field name that triggered the error
	Algorithm string // Algorithm or type that was missing/invalid
}

func (e *ConfigError) Error() string {
	if e.Field != "" && e.Algorithm != "" {
		return fmt.Sprintf("%s for algorithm %q (field %s)", e.Err.Error(), e.Algorithm, e.Field)
	}
	if e.Algorithm != "" {
		return fmt.Sprintf("%s for algorithm %q", e.Err.Error(), e.Algorithm)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s (field %s)", e.Err.Error(), e.Field)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CodecError wraps a failure from an underlying encoder or decoder.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrSerialization, ErrUnsupportedFormat)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// NewCodecError creates a CodecError.
func NewCodecError(sentinel, cause error) error {
	return newCodecError(sentinel, cause)
}

// newConfigError creates a ConfigError for missing handler scenarios.
func newConfigError(sentinel error, algorithm, field string) error {
	return &ConfigError{
		Err:       sentinel,
		Algorithm: algorithm,
		Field:     field,
	}
}

// newCodecError creates a CodecError for encode/decode failures.
func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}
