package withdrawal

import "errors"

var (
	ErrNotFound        = errors.New("withdrawal request not found")
	ErrNotOwner        = errors.New("withdrawal belongs to another user")
	ErrInvalidState    = errors.New("operation not allowed in current status")
	ErrBelowMinimum    = errors.New("amount below withdrawal minimum")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrProviderFailure = errors.New("transfer provider call failed")
)
