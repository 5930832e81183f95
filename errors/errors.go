// Package errors defines the error taxonomy surfaced by the quiver driver.
//
// Server-reported and transport failures are never returned synchronously on
// the caller's stack: they travel through the futures returned by
// Session.Submit and Cursor.FetchNext. Logic errors, on the other hand, are
// defects in calling code and are panicked at the point of misuse.
package errors

import (
	"fmt"

	cerrors "github.com/cockroachdb/errors"
)

// CompileError reports a query the server rejected before execution started.
// The query never streamed any records. Code is the server-assigned
// classification code.
type CompileError struct {
	Code    string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error [%s]: %s", e.Code, e.Message)
}

// NewCompileError returns a CompileError carrying the server classification.
func NewCompileError(code, message string) error {
	return cerrors.WithStack(&CompileError{Code: code, Message: message})
}

func IsCompileError(err error) bool {
	return cerrors.HasType(err, (*CompileError)(nil))
}

// RuntimeError reports a query that failed while executing, possibly after
// some records were already streamed. Records delivered before the failure
// remain valid.
type RuntimeError struct {
	Code    string
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error [%s]: %s", e.Code, e.Message)
}

// NewRuntimeError returns a RuntimeError carrying the server classification.
func NewRuntimeError(code, message string) error {
	return cerrors.WithStack(&RuntimeError{Code: code, Message: message})
}

func IsRuntimeError(err error) bool {
	return cerrors.HasType(err, (*RuntimeError)(nil))
}

// TransportError reports that the connection to the server was lost, reset or
// timed out. It is session-wide: the session fails the in-flight command and
// every queued command with the same error.
type TransportError struct {
	Message string
	Cause   error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport error: %s: %s", e.Message, e.Cause)
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NewTransportError returns a TransportError wrapping the underlying cause.
func NewTransportError(message string, cause error) error {
	return cerrors.WithStack(&TransportError{Message: message, Cause: cause})
}

func IsTransportError(err error) bool {
	return cerrors.HasType(err, (*TransportError)(nil))
}

// LogicError reports a contract violation by calling code, such as completing
// a future twice or reading a cursor's current record before any successful
// fetch. It indicates a defect, not a runtime fault to recover from.
type LogicError struct {
	msg string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("logic error: %s", e.msg)
}

// Logicf builds a LogicError. Call sites panic with the returned error.
func Logicf(format string, args ...any) error {
	return cerrors.WithStackDepth(&LogicError{msg: fmt.Sprintf(format, args...)}, 1)
}

func IsLogicError(err error) bool {
	return cerrors.HasType(err, (*LogicError)(nil))
}
