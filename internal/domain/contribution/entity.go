package contribution

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Contribution is one contributor payment toward one item. A lump-sum
// "contribute to all" produces one row per allocated item, all sharing a
// base payment reference.
type Contribution struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	WishlistID       uuid.UUID       `db:"wishlist_id" json:"wishlist_id"`
	WishlistItemID   uuid.UUID       `db:"wishlist_item_id" json:"wishlist_item_id"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`
	Status           Status          `db:"status" json:"status"`
	PaymentReference string          `db:"payment_reference" json:"payment_reference"`
	ProviderRef      sql.NullString  `db:"provider_reference" json:"provider_reference,omitempty"`
	ContributorName  string          `db:"contributor_name" json:"contributor_name"`
	ContributorEmail string          `db:"contributor_email" json:"contributor_email"`
	Message          sql.NullString  `db:"message" json:"message,omitempty"`
	IsAnonymous      bool            `db:"is_anonymous" json:"is_anonymous"`
	PaidAt           sql.NullTime    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// DisplayName hides the contributor behind "Anonymous" when requested
func (c *Contribution) DisplayName() string {
	if c.IsAnonymous {
		return "Anonymous"
	}
	return c.ContributorName
}

// RefundResult reports what a refund actually touched. WalletDebitSkipped
// is true when the owner's wallet lacked the funds to claw back; the item
// and wishlist bookkeeping are reversed regardless.
type RefundResult struct {
	Contribution       *Contribution `json:"contribution"`
	WalletDebitSkipped bool          `json:"wallet_debit_skipped"`
}
