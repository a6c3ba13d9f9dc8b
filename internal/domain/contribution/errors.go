package contribution

import "errors"

var (
	ErrNotFound        = errors.New("contribution not found")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidState    = errors.New("contribution is not in a valid state for this operation")
	ErrNoUnfundedItems = errors.New("wishlist has no unfunded items")
	ErrUnknownStrategy = errors.New("unknown allocation strategy")
	ErrProviderFailure = errors.New("payment provider request failed")
	ErrPaymentNotPaid  = errors.New("payment has not been confirmed by provider")
)
