// Package errors provides a lightweight structured error type (BuildControlError)
// for kind-based classification of configuration and trigger failures.
package errors

import (
	"fmt"
)

// ErrorKind classifies a BuildControlError for error-handling policy.
type ErrorKind string

const (
	// Configuration loading errors
	KindFileMissing         ErrorKind = "file_missing"
	KindMalformedDocument   ErrorKind = "malformed_document"
	KindSchemaViolation     ErrorKind = "schema_violation"
	KindUnresolvedInclusion ErrorKind = "unresolved_inclusion"
	KindInclusionCycle      ErrorKind = "inclusion_cycle"
	KindUnknownNode         ErrorKind = "unknown_node"
	KindInvalidAttribute    ErrorKind = "invalid_attribute"

	// Runtime and infrastructure errors
	KindNetwork  ErrorKind = "network"
	KindDaemon   ErrorKind = "daemon"
	KindInternal ErrorKind = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the whole operation
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// BuildControlError is a structured error with kind, retryability, and context
type BuildControlError struct {
	Kind      ErrorKind     `json:"kind"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BuildControlError
type ContextFields map[string]any

// Error implements the error interface
func (e *BuildControlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BuildControlError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BuildControlError) WithContext(key string, value any) *BuildControlError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new BuildControlError
func New(kind ErrorKind, severity ErrorSeverity, message string) *BuildControlError {
	return &BuildControlError{
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new BuildControlError that wraps an existing error
func Wrap(err error, kind ErrorKind, severity ErrorSeverity, message string) *BuildControlError {
	return &BuildControlError{
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable BuildControlError that wraps an existing error
func WrapRetryable(err error, kind ErrorKind, severity ErrorSeverity, message string) *BuildControlError {
	return &BuildControlError{
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsKind checks if an error belongs to a specific kind, unwrapping as needed.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if bce, ok := err.(*BuildControlError); ok {
		return bce.Retryable
	}
	return false
}

// KindOf extracts the kind from an error chain, or returns KindInternal
// if no BuildControlError is present.
func KindOf(err error) ErrorKind {
	for err != nil {
		if bce, ok := err.(*BuildControlError); ok {
			return bce.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return KindInternal
}
