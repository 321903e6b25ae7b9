// Package errors provides structured, coded errors for crawlterm.
//
// Coordination-layer conditions that are part of normal operation
// (dropped input, double start/stop, coalesced rebuilds) never produce
// an *Error; only failures that leave a component unusable do.
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigParse   ErrorCode = "CONFIG_PARSE"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Preference store errors
	ErrCodePrefsRead  ErrorCode = "PREFS_READ"
	ErrCodePrefsWrite ErrorCode = "PREFS_WRITE"

	// Engine errors
	ErrCodeEngineStart ErrorCode = "ENGINE_START"
	ErrCodeEngineExit  ErrorCode = "ENGINE_EXIT"

	// Presentation errors
	ErrCodeBackendInit ErrorCode = "BACKEND_INIT"

	// Storage errors
	ErrCodeStorageRead  ErrorCode = "STORAGE_READ"
	ErrCodeStorageWrite ErrorCode = "STORAGE_WRITE"

	// Messaging errors
	ErrCodeBusConnect ErrorCode = "BUS_CONNECT"

	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error represents a structured crawlterm error
type Error struct {
	Code        ErrorCode
	Message     string
	Underlying  error
	Context     map[string]any
	Stack       []Frame
	Retryable   bool
	UserMessage string
	Remediation []string
}

// Frame represents a stack frame
type Frame struct {
	Function string
	File     string
	Line     int
}

// New creates a new structured error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with a code and message.
// Wrapping nil returns nil.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Context:    make(map[string]any),
		Stack:      captureStack(2),
	}
}

// WithContext adds a key-value pair to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRetryable marks the error as retryable
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithUserMessage sets the message shown to players.
func (e *Error) WithUserMessage(message string) *Error {
	e.UserMessage = message
	return e
}

// WithRemediation replaces the remediation tips for the error.
func (e *Error) WithRemediation(tips ...string) *Error {
	if len(tips) == 0 {
		return e
	}
	e.Remediation = append([]string{}, tips...)
	return e
}

// Error implements the error interface. Context keys are printed in
// sorted order so messages are stable across runs.
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code, e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %v", k, e.Context[k])
		}
		sb.WriteString("}")
	}

	if e.Underlying != nil {
		fmt.Fprintf(&sb, ": %v", e.Underlying)
	}
	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Friendly returns the player-facing message, falling back to Message.
func (e *Error) Friendly() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

// StackTrace returns a formatted stack trace
func (e *Error) StackTrace() string {
	var sb strings.Builder
	sb.WriteString("Stack trace:\n")
	for i, frame := range e.Stack {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, frame.Function)
		fmt.Fprintf(&sb, "     %s:%d\n", frame.File, frame.Line)
	}
	return sb.String()
}

func captureStack(skip int) []Frame {
	const maxDepth = 32
	var pcs [maxDepth]uintptr

	n := runtime.Callers(skip+1, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	out := make([]Frame, 0, n)
	for {
		frame, more := frames.Next()
		out = append(out, Frame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more {
			break
		}
	}
	return out
}

// IsCode reports whether any *Error in err's chain has the given code.
func IsCode(err error, code ErrorCode) bool {
	var coded *Error
	if !stderrors.As(err, &coded) {
		return false
	}
	return coded.Code == code
}

// GetCode extracts the error code, INTERNAL for uncoded errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var coded *Error
	if !stderrors.As(err, &coded) {
		return ErrCodeInternal
	}
	return coded.Code
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var coded *Error
	if !stderrors.As(err, &coded) {
		return false
	}
	return coded.Retryable
}
