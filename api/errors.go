// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-devmem.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrInvalidSize       = fmt.Errorf("invalid allocation size")
	ErrOutOfSpace        = fmt.Errorf("no contiguous run of free blocks")
	ErrUnknownHandle     = fmt.Errorf("unknown or already freed handle")
	ErrPoolClosed        = fmt.Errorf("pool is not ready")
	ErrReservationFailed = fmt.Errorf("memory reservation failed")
	ErrNoDevice          = fmt.Errorf("no accelerator device available")
	ErrTransferTooLarge  = fmt.Errorf("transfer exceeds staging buffer")
	ErrEngineClosed      = fmt.Errorf("transfer engine is closed")
	ErrResourceExhausted = fmt.Errorf("resource exhausted")
	ErrNotFound          = fmt.Errorf("resource not found")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidSize
	ErrCodeOutOfSpace
	ErrCodeUnknownHandle
	ErrCodePoolClosed
	ErrCodeReservationFailed
	ErrCodeNoDevice
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
