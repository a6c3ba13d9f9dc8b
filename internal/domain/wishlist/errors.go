package wishlist

import "errors"

var (
	ErrNotFound            = errors.New("wishlist not found")
	ErrItemNotFound        = errors.New("wishlist item not found")
	ErrNotOwner            = errors.New("wishlist does not belong to user")
	ErrNotWithdrawable     = errors.New("item is not withdrawable")
	ErrNothingToWithdraw   = errors.New("item has no available balance")
	ErrInsufficientBalance = errors.New("insufficient item balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)
