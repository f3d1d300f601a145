package body

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/httpbody/buffer"
	"github.com/kbukum/httpbody/charset"
)

// ErrorCode classifies body materialization and transfer errors.
type ErrorCode int

const (
	// ErrCodeCapacity indicates the declared or accumulated content size
	// exceeds the configured maximum.
	ErrCodeCapacity ErrorCode = iota
	// ErrCodeCharset indicates an unrecognized or malformed declared charset.
	ErrCodeCharset
	// ErrCodeDecode indicates bytes that are invalid for the resolved encoding.
	ErrCodeDecode
	// ErrCodeTransfer indicates an I/O or disposed-resource fault from the
	// sink or writer.
	ErrCodeTransfer
	// ErrCodeCanceled indicates a fault that occurred because cancellation fired.
	ErrCodeCanceled
	// ErrCodeState indicates an illegal call sequence.
	ErrCodeState
	// ErrCodeClosed indicates an operation on a closed body.
	ErrCodeClosed
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeCapacity:
		return "capacity"
	case ErrCodeCharset:
		return "invalid_charset"
	case ErrCodeDecode:
		return "decode"
	case ErrCodeTransfer:
		return "transfer"
	case ErrCodeCanceled:
		return "canceled"
	case ErrCodeState:
		return "state"
	case ErrCodeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Error is a structured body error with classification. The original
// fault is always retained as the wrapped cause; no category swallows it.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("body: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewCapacityError creates a capacity error wrapping the buffer fault.
func NewCapacityError(err error) *Error {
	return &Error{Code: ErrCodeCapacity, Message: err.Error(), Err: err}
}

// NewCharsetError creates an invalid-charset error.
func NewCharsetError(err error) *Error {
	return &Error{Code: ErrCodeCharset, Message: err.Error(), Err: err}
}

// NewDecodeError creates a decode error.
func NewDecodeError(err error) *Error {
	return &Error{Code: ErrCodeDecode, Message: err.Error(), Err: err}
}

// NewTransferError creates a transfer error wrapping the sink or writer fault.
func NewTransferError(err error) *Error {
	return &Error{Code: ErrCodeTransfer, Message: err.Error(), Err: err}
}

// NewCanceledError creates a canceled error wrapping the underlying cause.
func NewCanceledError(err error) *Error {
	msg := "operation canceled"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Code: ErrCodeCanceled, Message: msg, Err: err}
}

// NewStateError creates an illegal-call-sequence error.
func NewStateError(msg string) *Error {
	return &Error{Code: ErrCodeState, Message: msg}
}

// NewClosedError creates an error for an operation on a closed body.
func NewClosedError(op string) *Error {
	return &Error{Code: ErrCodeClosed, Message: fmt.Sprintf("%s on closed body", op)}
}

// classify normalizes a fault from the writer, the sink, or a buffer into
// the taxonomy. Cancellation takes precedence over every other category:
// a fault that occurred while the context was already done is reported as
// canceled regardless of what triggered it. Errors already carrying a
// classification propagate unchanged so usage errors are not masked as
// transfer errors.
func classify(ctx context.Context, err error) *Error {
	if canceled(ctx, err) {
		return NewCanceledError(err)
	}
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	var ce *buffer.CapacityError
	if errors.As(err, &ce) {
		return NewCapacityError(err)
	}
	var uce *charset.UnknownCharsetError
	if errors.As(err, &uce) {
		return NewCharsetError(err)
	}
	var de *charset.DecodeError
	if errors.As(err, &de) {
		return NewDecodeError(err)
	}
	return NewTransferError(err)
}

// canceled reports whether err happened because cancellation fired.
func canceled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsCapacity checks if an error is a capacity error.
func IsCapacity(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCapacity
}

// IsCharset checks if an error is an invalid-charset error.
func IsCharset(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCharset
}

// IsDecode checks if an error is a decode error.
func IsDecode(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDecode
}

// IsTransfer checks if an error is a transfer error.
func IsTransfer(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTransfer
}

// IsCanceled checks if an error is a canceled error.
func IsCanceled(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCanceled
}

// IsState checks if an error is an illegal-call-sequence error.
func IsState(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeState
}

// IsClosed checks if an error is a closed-body error.
func IsClosed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeClosed
}
