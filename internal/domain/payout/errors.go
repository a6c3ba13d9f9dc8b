package payout

import "errors"

var (
	ErrNotFound           = errors.New("payout method not found")
	ErrNotVerified        = errors.New("payout method is not verified")
	ErrNoPrimaryMethod    = errors.New("no primary payout method on file")
	ErrVerificationFailed = errors.New("account verification failed")
)
