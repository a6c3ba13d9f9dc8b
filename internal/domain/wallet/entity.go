package wallet

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType classifies ledger entries.
type EntryType string

const (
	EntryTypeContribution EntryType = "contribution"
	EntryTypeWithdrawal   EntryType = "withdrawal"
	EntryTypeRefund       EntryType = "refund"
	EntryTypeFee          EntryType = "fee"
)

// Wallet aggregates a user's funds. Created lazily on first credit or
// withdrawal; at most one row per user.
type Wallet struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	AvailableBalance decimal.Decimal `db:"available_balance" json:"available_balance"`
	PendingBalance   decimal.Decimal `db:"pending_balance" json:"pending_balance"`
	TotalReceived    decimal.Decimal `db:"total_received" json:"total_received"`
	TotalWithdrawn   decimal.Decimal `db:"total_withdrawn" json:"total_withdrawn"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Transaction is an immutable ledger row. Amount is signed; for every entry
// except informational fee entries, BalanceAfter - BalanceBefore == Amount.
type Transaction struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	WalletID      uuid.UUID       `db:"wallet_id" json:"wallet_id"`
	Type          EntryType       `db:"type" json:"type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	Reference     string          `db:"reference" json:"reference"`
	Metadata      json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
