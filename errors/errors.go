package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling and monitoring.
type Category string

const (
	CategorySetup  Category = "setup"
	CategoryDecode Category = "decode"
	CategoryInput  Category = "input"
	CategoryEngine Category = "engine"
	CategoryConfig Category = "config"
)

// DecodeError is the structured error type used throughout the module.
type DecodeError struct {
	Category  Category
	Op        string // operation name
	Err       error
	Retryable bool
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// New creates a non-retryable DecodeError.
func New(category Category, op string, err error) *DecodeError {
	return &DecodeError{Category: category, Op: op, Err: err}
}

// NeedMoreInput creates a retryable DecodeError: the caller may retry once
// it can supply the complete codestream.
func NeedMoreInput(op string) *DecodeError {
	return &DecodeError{Category: CategoryInput, Op: op, Err: ErrNeedMoreInput, Retryable: true}
}

// Wrap wraps an existing error with context.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// IsRetryable reports whether err represents a failure the caller can retry,
// such as a truncated codestream that can be re-decoded with more bytes.
func IsRetryable(err error) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Category == cat
	}
	return false
}

// CategoryOf extracts the category from err; empty when err carries none.
func CategoryOf(err error) Category {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Category
	}
	return ""
}

// Sentinel errors for common failure modes.
var (
	ErrGeneric       = errors.New("decoding failed")
	ErrNeedMoreInput = errors.New("need more input")
	ErrEmptyInput    = errors.New("empty input")
	ErrClosed        = errors.New("already closed")
	ErrNilEngine     = errors.New("nil engine")
	ErrInvalidFormat = errors.New("invalid pixel format")
)

// UnknownStatusError reports an engine status the decode loop does not
// recognize. The raw code is preserved for diagnostics.
type UnknownStatusError struct {
	Code uint32
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown engine status 0x%x", e.Code)
}
