// Package apperrors defines the error kinds the assistant distinguishes when
// turning failures into user-facing results.
package apperrors

import (
	"errors"
	"fmt"
)

// InputError reports an intent that cannot be acted on: an unparseable
// value or a missing required field.
type InputError struct {
	Field  string
	Reason string
	// Message is the text shown to the user.
	Message string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// NewInputError creates an InputError with a user-facing message.
func NewInputError(field, reason, message string) *InputError {
	return &InputError{Field: field, Reason: reason, Message: message}
}

// NotFoundError reports an expected empty result, such as no matching event
// or no free slot. It is informational.
type NotFoundError struct {
	What    string
	Message string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.What
}

// NewNotFound creates a NotFoundError with a user-facing message.
func NewNotFound(what, message string) *NotFoundError {
	return &NotFoundError{What: what, Message: message}
}

// GatewayError wraps a failed remote calendar call.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// WrapGateway wraps err as a GatewayError for op. Nil and already wrapped
// errors are returned unchanged.
func WrapGateway(op string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return err
	}
	return &GatewayError{Op: op, Err: err}
}

// StateError reports a request that does not fit the current conversation
// state, such as undo with nothing recorded.
type StateError struct {
	Reason  string
	Message string
}

func (e *StateError) Error() string {
	return "invalid state: " + e.Reason
}

// NewStateError creates a StateError with a user-facing message.
func NewStateError(reason, message string) *StateError {
	return &StateError{Reason: reason, Message: message}
}

// UserMessage returns the user-facing message carried by err, if any.
func UserMessage(err error) (string, bool) {
	var inputErr *InputError
	if errors.As(err, &inputErr) && inputErr.Message != "" {
		return inputErr.Message, true
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) && notFound.Message != "" {
		return notFound.Message, true
	}
	var stateErr *StateError
	if errors.As(err, &stateErr) && stateErr.Message != "" {
		return stateErr.Message, true
	}
	return "", false
}

// IsGateway reports whether err wraps a GatewayError.
func IsGateway(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}
