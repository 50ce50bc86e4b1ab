// Package apperrors defines the error taxonomy shared across the engine,
// the cron scheduler, and the websocket session manager.
package apperrors

import (
	"errors"
	"fmt"
)

// Code names one kind in the taxonomy. Kinds are not Go types so callers
// can carry them across process boundaries (REST/WS replies) unchanged.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeProtocol     Code = "PROTOCOL_ERROR"
	CodeNode         Code = "NODE_ERROR"
	CodeTimeout      Code = "TIMEOUT"
	CodeCancelled    Code = "CANCELLED"
	CodeRegistryMiss Code = "REGISTRY_MISS"
	CodeScheduler    Code = "SCHEDULER_ERROR"
	CodeTransport    Code = "TRANSPORT_ERROR"
)

// WorkflowError is the single error type the engine and its collaborators
// return; Code classifies it for callers that need to branch on kind.
type WorkflowError struct {
	Code    Code
	Message string
	Cause   error
	// Details carries structured, code-specific payload fields (e.g. a
	// loop node's iterationsExecuted count) surfaced verbatim to API and
	// websocket error replies.
	Details map[string]any
}

func (e *WorkflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *WorkflowError) Unwrap() error { return e.Cause }

func New(code Code, message string) *WorkflowError {
	return &WorkflowError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *WorkflowError {
	return &WorkflowError{Code: code, Message: message, Cause: cause}
}

func NewValidation(message string) *WorkflowError   { return New(CodeValidation, message) }
func NewProtocol(message string) *WorkflowError     { return New(CodeProtocol, message) }
func NewNode(message string, cause error) *WorkflowError {
	return Wrap(CodeNode, message, cause)
}
func NewTimeout(message string) *WorkflowError      { return New(CodeTimeout, message) }
func NewCancelled(message string) *WorkflowError    { return New(CodeCancelled, message) }
func NewRegistryMiss(nodeID string) *WorkflowError {
	return New(CodeRegistryMiss, "node not registered in scope: "+nodeID)
}
func NewScheduler(message string, cause error) *WorkflowError {
	return Wrap(CodeScheduler, message, cause)
}
func NewTransport(message string, cause error) *WorkflowError {
	return Wrap(CodeTransport, message, cause)
}

// WithDetails attaches structured payload fields and returns e for chaining.
func (e *WorkflowError) WithDetails(details map[string]any) *WorkflowError {
	e.Details = details
	return e
}

// Is reports whether err carries the given code, unwrapping as needed.
func Is(err error, code Code) bool {
	for err != nil {
		if we, ok := err.(*WorkflowError); ok && we.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
