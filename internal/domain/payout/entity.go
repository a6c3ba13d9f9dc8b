package payout

import (
	"time"

	"github.com/google/uuid"
)

// Method is a verified bank-account destination for outbound transfers.
// One-off methods (IsNormalTransfer) are created inline for a single
// withdrawal and excluded from the user's saved list.
type Method struct {
	ID               uuid.UUID `db:"id" json:"id"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	BankName         string    `db:"bank_name" json:"bank_name"`
	BankCode         string    `db:"bank_code" json:"bank_code"`
	AccountNumber    string    `db:"account_number" json:"account_number"`
	AccountName      string    `db:"account_name" json:"account_name"`
	RecipientCode    string    `db:"recipient_code" json:"-"`
	IsVerified       bool      `db:"is_verified" json:"is_verified"`
	IsPrimary        bool      `db:"is_primary" json:"is_primary"`
	IsNormalTransfer bool      `db:"is_normal_transfer" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Bank is a provider-supported bank
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// InlineAccount is a one-off destination supplied directly on a withdrawal
// request instead of referencing a saved method
type InlineAccount struct {
	AccountNumber string `json:"account_number" validate:"required,nuban"`
	BankCode      string `json:"bank_code" validate:"required,bankcode"`
	BankName      string `json:"bank_name"`
}

// Selector names exactly one way to resolve a payout destination: an
// explicit saved method, an inline one-off account, or (both nil) the
// user's primary method.
type Selector struct {
	MethodID *uuid.UUID
	Inline   *InlineAccount
}
