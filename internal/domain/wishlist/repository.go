package wishlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// BeginTx starts a transaction for balance-mutating flows. Read committed
// is enough because every mutation locks its item row first.
func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (r *Repository) CreateWishlist(ctx context.Context, w *Wishlist) error {
	query := `
		INSERT INTO wishlists (id, user_id, title, description, contributors_count, total_contributed, created_at, updated_at)
		VALUES (:id, :user_id, :title, :description, 0, 0, NOW(), NOW())`

	if _, err := r.db.NamedExecContext(ctx, query, w); err != nil {
		return fmt.Errorf("create wishlist: %w", err)
	}
	return nil
}

func (r *Repository) GetWishlist(ctx context.Context, id uuid.UUID) (*Wishlist, error) {
	var w Wishlist
	err := r.db.GetContext(ctx, &w, `SELECT * FROM wishlists WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	return &w, nil
}

func (r *Repository) ListWishlistsByUser(ctx context.Context, userID uuid.UUID) ([]Wishlist, error) {
	lists := []Wishlist{}
	err := r.db.SelectContext(ctx, &lists,
		`SELECT * FROM wishlists WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlists: %w", err)
	}
	return lists, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO wishlist_items (id, wishlist_id, name, price, priority,
			total_contributed, available_balance, pending_balance, withdrawn_amount,
			is_withdrawable, is_funded, created_at, updated_at)
		VALUES (:id, :wishlist_id, :name, :price, :priority, 0, 0, 0, 0,
			:is_withdrawable, false, NOW(), NOW())`

	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create wishlist item: %w", err)
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	var item Item
	err := r.db.GetContext(ctx, &item, `SELECT * FROM wishlist_items WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get wishlist item: %w", err)
	}
	return &item, nil
}

func (r *Repository) ListItems(ctx context.Context, wishlistID uuid.UUID) ([]Item, error) {
	items := []Item{}
	err := r.db.SelectContext(ctx, &items,
		`SELECT * FROM wishlist_items WHERE wishlist_id = $1 ORDER BY COALESCE(priority, 999), created_at`,
		wishlistID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	return items, nil
}

// ListUnfundedItems returns items still short of their price, ordered by
// effective priority then age. Allocation targets exactly this set.
func (r *Repository) ListUnfundedItems(ctx context.Context, wishlistID uuid.UUID) ([]Item, error) {
	items := []Item{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM wishlist_items
		WHERE wishlist_id = $1 AND total_contributed < price
		ORDER BY COALESCE(priority, 999), created_at`,
		wishlistID)
	if err != nil {
		return nil, fmt.Errorf("list unfunded items: %w", err)
	}
	return items, nil
}

// LockItemTx loads an item row under FOR UPDATE so balance checks and the
// following mutation see the same state.
func (r *Repository) LockItemTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Item, error) {
	var item Item
	err := tx.GetContext(ctx, &item, `SELECT * FROM wishlist_items WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock wishlist item: %w", err)
	}
	return &item, nil
}

// CreditItemTx settles a confirmed contribution into an item. The amount
// lands in pending first and is immediately moved to available; the two
// statements run in the caller's transaction so no intermediate state is
// visible. Funded state latches on and is never cleared here or anywhere.
func (r *Repository) CreditItemTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wishlist_items
		SET total_contributed = total_contributed + $2,
		    pending_balance = pending_balance + $2,
		    updated_at = NOW()
		WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("credit item pending: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wishlist_items
		SET pending_balance = pending_balance - $2,
		    available_balance = available_balance + $2,
		    is_funded = (is_funded OR total_contributed >= price),
		    funded_at = CASE WHEN funded_at IS NULL AND total_contributed >= price THEN NOW() ELSE funded_at END,
		    updated_at = NOW()
		WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("release item pending: %w", err)
	}
	return nil
}

// DebitItemTx moves amount out of an item's available balance into its
// withdrawn total. The guard makes over-withdrawal impossible even if the
// caller's pre-check raced.
func (r *Repository) DebitItemTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE wishlist_items
		SET available_balance = available_balance - $2,
		    withdrawn_amount = withdrawn_amount + $2,
		    last_withdrawal = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND available_balance >= $2`, id, amount)
	if err != nil {
		return fmt.Errorf("debit item: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit item rows: %w", err)
	}
	if rows == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// RefundItemTx reverses a contribution's effect on an item. Both totals are
// floored at zero because part of the money may already have moved on to
// the wallet. Funded state stays latched.
func (r *Repository) RefundItemTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wishlist_items
		SET total_contributed = GREATEST(total_contributed - $2, 0),
		    available_balance = GREATEST(available_balance - $2, 0),
		    updated_at = NOW()
		WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("refund item: %w", err)
	}
	return nil
}

// RecomputeAggregatesTx rewrites the wishlist's contributor count and total
// from completed contributions. Aggregates are derived, never incremented,
// so a retried settlement cannot double-count.
func (r *Repository) RecomputeAggregatesTx(ctx context.Context, tx *sqlx.Tx, wishlistID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wishlists
		SET contributors_count = sub.contributors,
		    total_contributed = sub.total,
		    updated_at = NOW()
		FROM (
			SELECT COUNT(DISTINCT COALESCE(contributor_email, payment_reference)) AS contributors,
			       COALESCE(SUM(amount), 0) AS total
			FROM contributions
			WHERE wishlist_id = $1 AND status = 'completed'
		) sub
		WHERE wishlists.id = $1`, wishlistID)
	if err != nil {
		return fmt.Errorf("recompute wishlist aggregates: %w", err)
	}
	return nil
}

func (r *Repository) InsertItemWithdrawalTx(ctx context.Context, tx *sqlx.Tx, iw *ItemWithdrawal) error {
	query := `
		INSERT INTO item_withdrawals (id, wishlist_item_id, wishlist_id, user_id, wallet_id,
			amount, status, reference, processed_at, created_at)
		VALUES (:id, :wishlist_item_id, :wishlist_id, :user_id, :wallet_id,
			:amount, :status, :reference, :processed_at, NOW())`

	if _, err := tx.NamedExecContext(ctx, query, iw); err != nil {
		return fmt.Errorf("insert item withdrawal: %w", err)
	}
	return nil
}

func (r *Repository) ListItemWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ItemWithdrawal, error) {
	ws := []ItemWithdrawal{}
	err := r.db.SelectContext(ctx, &ws, `
		SELECT * FROM item_withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list item withdrawals: %w", err)
	}
	return ws, nil
}
