// Package errors provides structured error handling for MartFlow.
// Errors carry a stable code, key/value context, and a stack trace.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Code identifies an error category for programmatic handling.
type Code string

const (
	// Input errors (1xx) — fatal, abort before any output is produced.
	CodeSourceNotFound Code = "E101"
	CodeSourceEmpty    Code = "E102"
	CodeLoadFailure    Code = "E103"

	// Processing warnings (2xx) — non-fatal, reported and absorbed.
	CodeCoercionWarning   Code = "E201"
	CodeValidationWarning Code = "E202"
	CodeAttributeParse    Code = "E203"

	// Output errors (3xx) — fatal.
	CodePersistFailure Code = "E301"
	CodeReportFailure  Code = "E302"

	// System errors (4xx)
	CodeContextCanceled Code = "E401"

	// Unknown
	CodeUnknown Code = "E999"
)

// FlowError is the base error type for all MartFlow errors.
type FlowError struct {
	Code       Code
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace []Frame
}

// Frame represents a stack frame.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, v))
			first = false
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *FlowError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target error by code.
func (e *FlowError) Is(target error) bool {
	if t, ok := target.(*FlowError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *FlowError) WithContext(key string, value interface{}) *FlowError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new FlowError.
func New(code Code, message string) *FlowError {
	return &FlowError{
		Code:       code,
		Message:    message,
		StackTrace: captureStack(2),
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code Code, message string) *FlowError {
	if err == nil {
		return nil
	}

	return &FlowError{
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: captureStack(2),
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *FlowError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func captureStack(skip int) []Frame {
	var frames []Frame
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	pcs = pcs[:n]

	cf := runtime.CallersFrames(pcs)
	for {
		frame, more := cf.Next()
		frames = append(frames, Frame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more || len(frames) >= 10 {
			break
		}
	}
	return frames
}

// FormatStack returns a formatted stack trace.
func (e *FlowError) FormatStack() string {
	var sb strings.Builder
	for _, f := range e.StackTrace {
		sb.WriteString(fmt.Sprintf("  at %s\n    %s:%d\n", f.Function, f.File, f.Line))
	}
	return sb.String()
}

// --- Convenience constructors ---

// SourceNotFound creates a missing-source error.
func SourceNotFound(path string) *FlowError {
	return New(CodeSourceNotFound, "source file not found").WithContext("path", path)
}

// SourceEmpty creates an empty-source error.
func SourceEmpty(path string) *FlowError {
	return New(CodeSourceEmpty, "source file contains no records").WithContext("path", path)
}

// LoadFailure wraps a read error that is neither not-found nor empty.
func LoadFailure(err error, path string) *FlowError {
	return Wrap(err, CodeLoadFailure, "failed to load source").WithContext("path", path)
}

// PersistFailure wraps a store-write error with the step that failed.
func PersistFailure(err error, step string) *FlowError {
	return Wrap(err, CodePersistFailure, "failed to persist store").WithContext("step", step)
}

// ContextCanceled creates a cancellation error.
func ContextCanceled(operation string) *FlowError {
	return New(CodeContextCanceled, "operation canceled").
		WithContext("operation", operation)
}

// --- Error checking utilities ---

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeUnknown
}

// IsFatal reports whether the error aborts the run. Warnings (2xx)
// are absorbed by the stage that raised them; everything else aborts.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case CodeCoercionWarning, CodeValidationWarning, CodeAttributeParse:
		return false
	default:
		return true
	}
}
