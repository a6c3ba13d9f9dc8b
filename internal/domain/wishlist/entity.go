package wishlist

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPriority sorts unprioritized items last in priority allocation
const DefaultPriority = 999

// Wishlist groups items and carries aggregates that are always recomputed
// from confirmed contributions, never incremented.
type Wishlist struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	UserID            uuid.UUID       `db:"user_id" json:"user_id"`
	Title             string          `db:"title" json:"title"`
	Description       sql.NullString  `db:"description" json:"description,omitempty"`
	ContributorsCount int             `db:"contributors_count" json:"contributors_count"`
	TotalContributed  decimal.Decimal `db:"total_contributed" json:"total_contributed"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// Item is a wished-for item with its own three-tier balance. IsFunded is
// monotonic: once set it is never cleared, even by refunds.
type Item struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	WishlistID       uuid.UUID       `db:"wishlist_id" json:"wishlist_id"`
	Name             string          `db:"name" json:"name"`
	Price            decimal.Decimal `db:"price" json:"price"`
	Priority         sql.NullInt32   `db:"priority" json:"priority,omitempty"`
	TotalContributed decimal.Decimal `db:"total_contributed" json:"total_contributed"`
	AvailableBalance decimal.Decimal `db:"available_balance" json:"available_balance"`
	PendingBalance   decimal.Decimal `db:"pending_balance" json:"pending_balance"`
	WithdrawnAmount  decimal.Decimal `db:"withdrawn_amount" json:"withdrawn_amount"`
	IsWithdrawable   bool            `db:"is_withdrawable" json:"is_withdrawable"`
	IsFunded         bool            `db:"is_funded" json:"is_funded"`
	FundedAt         sql.NullTime    `db:"funded_at" json:"funded_at,omitempty"`
	LastWithdrawal   sql.NullTime    `db:"last_withdrawal" json:"last_withdrawal,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// EffectivePriority treats unset priority as DefaultPriority
func (i *Item) EffectivePriority() int {
	if i.Priority.Valid {
		return int(i.Priority.Int32)
	}
	return DefaultPriority
}

// Needed is the unfunded remainder of the item's price
func (i *Item) Needed() decimal.Decimal {
	needed := i.Price.Sub(i.TotalContributed)
	if needed.IsNegative() {
		return decimal.Zero
	}
	return needed
}

// ItemWithdrawalStatus mirrors the wallet withdrawal model; the internal
// item-to-wallet move completes synchronously so pending/failed are not
// reachable in the normal flow.
type ItemWithdrawalStatus string

const (
	ItemWithdrawalPending   ItemWithdrawalStatus = "pending"
	ItemWithdrawalCompleted ItemWithdrawalStatus = "completed"
	ItemWithdrawalFailed    ItemWithdrawalStatus = "failed"
)

// ItemWithdrawal records one internal move from an item balance into the
// owner's wallet. Not a bank transfer.
type ItemWithdrawal struct {
	ID             uuid.UUID            `db:"id" json:"id"`
	WishlistItemID uuid.UUID            `db:"wishlist_item_id" json:"wishlist_item_id"`
	WishlistID     uuid.UUID            `db:"wishlist_id" json:"wishlist_id"`
	UserID         uuid.UUID            `db:"user_id" json:"user_id"`
	WalletID       uuid.UUID            `db:"wallet_id" json:"wallet_id"`
	Amount         decimal.Decimal      `db:"amount" json:"amount"`
	Status         ItemWithdrawalStatus `db:"status" json:"status"`
	Reference      string               `db:"reference" json:"reference"`
	ProcessedAt    sql.NullTime         `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt      time.Time            `db:"created_at" json:"created_at"`
}

// BulkFailure reports one item that could not be withdrawn in a bulk run
type BulkFailure struct {
	ItemID uuid.UUID `json:"item_id"`
	Reason string    `json:"reason"`
}

// BulkResult summarizes a withdraw-all run. Earlier successes are never
// rolled back when a later item fails.
type BulkResult struct {
	TotalWithdrawn decimal.Decimal  `json:"total_withdrawn"`
	Withdrawals    []ItemWithdrawal `json:"withdrawals"`
	Failures       []BulkFailure    `json:"failures,omitempty"`
}
