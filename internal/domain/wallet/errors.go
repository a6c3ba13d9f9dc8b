package wallet

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrInsufficientPending = errors.New("pending balance smaller than reservation")
	ErrNotFound            = errors.New("wallet not found")
)
