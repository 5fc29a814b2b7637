package qti

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes carried by CompileError. Match with errors.Is.
var (
	ErrUndeclaredResponse  = errors.New("dimension references an undeclared response")
	ErrPathLength          = errors.New("combination path length does not match dimension count")
	ErrPathMismatch        = errors.New("combination path step does not match its dimension")
	ErrInvalidKey          = errors.New("outcome key is not valid for its dimension")
	ErrDuplicatePath       = errors.New("combinations share an identical path")
	ErrEmptyPlan           = errors.New("feedback plan has no combinations")
	ErrUnsupportedKind     = errors.New("unsupported dimension kind")
	ErrUnsupportedBaseType = errors.New("unsupported base type")
	ErrMissingRounding     = errors.New("float response has no rounding")
	ErrNoSingleCorrect     = errors.New("tolerance test needs exactly one correct value")
)

// CompileError is a fatal compilation failure tied to the response
// identifier or combination id that caused it.
type CompileError struct {
	Identifier string // Response identifier or combination id
	Message    string // Human-readable detail
	Err        error  // Sentinel cause
}

func newCompileError(identifier string, cause error, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Identifier: identifier,
		Message:    fmt.Sprintf(format, args...),
		Err:        cause,
	}
}

// Error implements the error interface for CompileError
func (e *CompileError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("compile %s", e.Identifier))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	if e.Message != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Message))
	}
	return sb.String()
}

// Unwrap returns the sentinel cause for errors.Is support
func (e *CompileError) Unwrap() error {
	return e.Err
}
