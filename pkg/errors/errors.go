package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    int    // Application error code, mapped to an HTTP status at the boundary
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

const (
	ErrUnauthorized     = 1001
	ErrProfileNotFound  = 1002
	ErrNotFound         = 1003
	ErrNotAvailable     = 1004
	ErrSelfPurchase     = 1005
	ErrNoBuyNowPrice    = 1006
	ErrOutbid           = 1007
	ErrConflict         = 1008
	ErrConcurrentUpdate = 1009
	ErrBadRequest       = 1010
	ErrForbidden        = 1011
	ErrStoreUnavailable = 1012

	ErrInternalServer = 500
)

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error creation utility
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrapping utility
func Wrap(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the application error code from an error chain.
// Unknown errors report ErrInternalServer.
func CodeOf(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternalServer
}

// Is reports whether the error chain carries the given application code.
func Is(err error, code int) bool {
	return err != nil && CodeOf(err) == code
}

// ToJSON renders the error as a wire-format payload for WebSocket clients.
func (e *AppError) ToJSON() string {
	return fmt.Sprintf(`{"type": "error", "code": %d, "message": %q}`, e.Code, e.Message)
}
