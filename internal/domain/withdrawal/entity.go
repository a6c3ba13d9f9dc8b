package withdrawal

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a withdrawal request. Terminal states are completed, failed
// and cancelled; no transition is defined out of them.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Request is a wallet-level withdrawal to a bank account. Amount is the
// gross debit reserved from the wallet; NetAmount = Amount - Fee is what
// the provider transfers out.
type Request struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	WalletID         uuid.UUID       `db:"wallet_id" json:"wallet_id"`
	PayoutMethodID   uuid.UUID       `db:"payout_method_id" json:"payout_method_id"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`
	Fee              decimal.Decimal `db:"fee" json:"fee"`
	NetAmount        decimal.Decimal `db:"net_amount" json:"net_amount"`
	Status           Status          `db:"status" json:"status"`
	PaymentReference string          `db:"payment_reference" json:"payment_reference"`
	TransferCode     sql.NullString  `db:"transfer_code" json:"transfer_code,omitempty"`
	FailureReason    sql.NullString  `db:"failure_reason" json:"failure_reason,omitempty"`
	ProcessedAt      sql.NullTime    `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}
