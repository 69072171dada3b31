package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInsufficientData     = errors.New("insufficient_data")
	ErrInvalidOrder         = errors.New("invalid_order")
	ErrInvalidFill          = errors.New("invalid_fill")
	ErrInvalidSide          = errors.New("invalid_side")
	ErrInsufficientCash     = errors.New("insufficient_cash")
	ErrInsufficientPosition = errors.New("insufficient_position")
	ErrInvalidStep          = errors.New("invalid_step")
	ErrSessionNotFound      = errors.New("session_not_found")
	ErrOrderNotFound        = errors.New("order_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
