package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// Configuration errors - missing or invalid configuration
	ErrorTypeConfig ErrorType = iota
	// ParseDegraded - a grammar parse produced partial results
	ErrorTypeParseDegraded
	// FileUnreadable - a source file could not be read during indexing
	ErrorTypeFileUnreadable
	// BackendUnavailable - a graph, vector, or inference backend is unreachable
	ErrorTypeBackendUnavailable
	// StrategyExhausted - the active inference strategy and its fallback both failed
	ErrorTypeStrategyExhausted
	// GraphIntegrity - a write would leave the relationship graph inconsistent
	ErrorTypeGraphIntegrity
	// Internal errors - unexpected internal state
	ErrorTypeInternal
)

// Severity represents how critical an error is
type Severity int

const (
	// SeverityLow - can continue with degraded functionality
	SeverityLow Severity = iota
	// SeverityMedium - should be addressed but not fatal
	SeverityMedium
	// SeverityHigh - significant issue, may impact functionality
	SeverityHigh
	// SeverityCritical - must be addressed, stops execution
	SeverityCritical
)

// Error represents a structured error with context
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is checks if this error matches the target error type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsFatal returns true if this error should stop execution
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// DetailedString returns a detailed error message with context
func (e *Error) DetailedString() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] [%s] %s\n",
		severityString(e.Severity),
		typeString(e.Type),
		e.Message))

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("Caused by: %v\n", e.Cause))
	}

	if len(e.Context) > 0 {
		sb.WriteString("Context:\n")
		for k, v := range e.Context {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}

	if e.StackTrace != "" {
		sb.WriteString(fmt.Sprintf("Stack trace:\n%s\n", e.StackTrace))
	}

	return sb.String()
}

func typeString(t ErrorType) string {
	switch t {
	case ErrorTypeConfig:
		return "CONFIG"
	case ErrorTypeParseDegraded:
		return "PARSE_DEGRADED"
	case ErrorTypeFileUnreadable:
		return "FILE_UNREADABLE"
	case ErrorTypeBackendUnavailable:
		return "BACKEND_UNAVAILABLE"
	case ErrorTypeStrategyExhausted:
		return "STRATEGY_EXHAUSTED"
	case ErrorTypeGraphIntegrity:
		return "GRAPH_INTEGRITY"
	case ErrorTypeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

func severityString(s Severity) string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// captureStackTrace captures the current stack trace
func captureStackTrace(skip int) string {
	var sb strings.Builder
	for i := skip; i < skip+10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			break
		}
		sb.WriteString(fmt.Sprintf("  %s:%d %s\n", file, line, fn.Name()))
	}
	return sb.String()
}

// New creates a new error with the given type, severity, and message
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Context:    make(map[string]interface{}),
		StackTrace: captureStackTrace(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Cause:      err,
		Context:    make(map[string]interface{}),
		StackTrace: captureStackTrace(2),
	}
}

// Convenience constructors for common error types

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, SeverityCritical, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

// ParseDegraded records a partial grammar parse. Low severity: the analysis
// still carries whatever symbols were recovered.
func ParseDegraded(path string, detail string) *Error {
	return New(ErrorTypeParseDegraded, SeverityLow, fmt.Sprintf("degraded parse of %s: %s", path, detail)).
		WithContext("path", path)
}

// FileUnreadable wraps a read failure for one file. Indexing continues past it.
func FileUnreadable(err error, path string) *Error {
	return Wrap(err, ErrorTypeFileUnreadable, SeverityLow, fmt.Sprintf("cannot read %s", path)).
		WithContext("path", path)
}

// BackendUnavailable wraps a connectivity failure for a named backend
func BackendUnavailable(err error, backend string) *Error {
	return Wrap(err, ErrorTypeBackendUnavailable, SeverityMedium, fmt.Sprintf("%s backend unavailable", backend)).
		WithContext("backend", backend)
}

// BackendUnavailablef wraps a connectivity failure with formatting
func BackendUnavailablef(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeBackendUnavailable, SeverityMedium, fmt.Sprintf(format, args...))
}

// StrategyExhausted reports that the current strategy and its single fallback
// hop both failed for a request
func StrategyExhausted(err error, strategy string) *Error {
	e := Wrap(err, ErrorTypeStrategyExhausted, SeverityHigh, "all inference strategies exhausted")
	if e == nil {
		e = New(ErrorTypeStrategyExhausted, SeverityHigh, "all inference strategies exhausted")
	}
	return e.WithContext("last_strategy", strategy)
}

// GraphIntegrity creates a graph consistency error
func GraphIntegrity(message string) *Error {
	return New(ErrorTypeGraphIntegrity, SeverityCritical, message)
}

// GraphIntegrityf creates a graph consistency error with formatting
func GraphIntegrityf(format string, args ...interface{}) *Error {
	return New(ErrorTypeGraphIntegrity, SeverityCritical, fmt.Sprintf(format, args...))
}

// InternalError creates an internal error
func InternalError(message string) *Error {
	return New(ErrorTypeInternal, SeverityCritical, message)
}

// InternalErrorf creates an internal error with formatting
func InternalErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// IsFatal checks if an error is fatal (should stop execution)
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	if e, ok := err.(*Error); ok {
		return e.IsFatal()
	}

	return false
}

// IsType checks whether err carries the given error type
func IsType(err error, t ErrorType) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == t
	}
	return false
}

// GetSeverity returns the severity of an error
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityLow
	}

	if e, ok := err.(*Error); ok {
		return e.Severity
	}

	return SeverityMedium
}

// GetType returns the type of an error
func GetType(err error) ErrorType {
	if err == nil {
		return ErrorTypeInternal
	}

	if e, ok := err.(*Error); ok {
		return e.Type
	}

	return ErrorTypeInternal
}
