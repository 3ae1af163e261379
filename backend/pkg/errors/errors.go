package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeStore represents content/vector store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Category returns the error's type classification
func (e *BaseError) Category() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphOperationFailed is returned when a graph statement fails against a
// reachable store. The operation and target id identify what was being
// mirrored when the failure happened.
type ErrGraphOperationFailed struct {
	*BaseError
	Operation string
	TargetID  string
}

func NewGraphOperationFailed(operation, targetID string, err error) *ErrGraphOperationFailed {
	return &ErrGraphOperationFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("%s failed for %s", operation, targetID), err),
		Operation: operation,
		TargetID:  targetID,
	}
}

// Store Errors

// ErrStoreQueryFailed is returned when a content store query fails
type ErrStoreQueryFailed struct {
	*BaseError
	Query string
}

func NewStoreQueryFailed(query string, err error) *ErrStoreQueryFailed {
	return &ErrStoreQueryFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("store query failed: %s", query), err),
		Query:     query,
	}
}

// ErrStoreOpenFailed is returned when the SQLite database cannot be opened
type ErrStoreOpenFailed struct {
	*BaseError
	Path string
}

func NewStoreOpenFailed(path string, err error) *ErrStoreOpenFailed {
	return &ErrStoreOpenFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("failed to open store: %s", path), err),
		Path:      path,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type. Typed errors embed
// *BaseError, so the promoted category method matches both BaseError itself
// and every wrapper around it.
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if typed, ok := err.(interface{ Category() ErrorType }); ok {
			return typed.Category() == errType
		}
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = wrapped.Unwrap()
	}
	return false
}

// IsRetryable checks if an error is retryable. Every mutating graph
// operation is idempotent, so graph and store failures are safe to re-run;
// context errors are not.
func IsRetryable(err error) bool {
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	if IsErrorType(err, ErrorTypeGraph) {
		return true
	}
	if IsErrorType(err, ErrorTypeStore) {
		return true
	}
	return false
}
