package contribution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (r *Repository) Create(ctx context.Context, c *Contribution) error {
	query := `
		INSERT INTO contributions (id, wishlist_id, wishlist_item_id, amount, status,
			payment_reference, contributor_name, contributor_email, message, is_anonymous,
			created_at, updated_at)
		VALUES (:id, :wishlist_id, :wishlist_item_id, :amount, :status,
			:payment_reference, :contributor_name, :contributor_email, :message, :is_anonymous,
			NOW(), NOW())`

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("create contribution: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Contribution, error) {
	var c Contribution
	err := r.db.GetContext(ctx, &c, `SELECT * FROM contributions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contribution: %w", err)
	}
	return &c, nil
}

// FindByReference returns every row behind one provider payment: the single
// row whose reference matches exactly, or the per-item rows sharing a
// contribute-to-all base reference.
func (r *Repository) FindByReference(ctx context.Context, reference string) ([]Contribution, error) {
	rows := []Contribution{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM contributions
		WHERE payment_reference = $1 OR payment_reference LIKE $1 || '-%'
		ORDER BY created_at`, reference)
	if err != nil {
		return nil, fmt.Errorf("find contributions by reference: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows, nil
}

// LockTx reloads a contribution row under FOR UPDATE so the settlement
// status guard and the balance mutations see the same state.
func (r *Repository) LockTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Contribution, error) {
	var c Contribution
	err := tx.GetContext(ctx, &c, `SELECT * FROM contributions WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock contribution: %w", err)
	}
	return &c, nil
}

// CompleteTx flips pending to completed. Zero rows affected means the guard
// did not match; the caller decides whether that is an idempotent no-op or
// an invalid state.
func (r *Repository) CompleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, providerRef string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE contributions
		SET status = 'completed',
		    provider_reference = $2,
		    paid_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id, providerRef)
	if err != nil {
		return false, fmt.Errorf("complete contribution: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete contribution rows: %w", err)
	}
	return rows > 0, nil
}

// FailTx marks a pending contribution failed after an abandoned or declined
// charge. Completed rows are left alone.
func (r *Repository) FailTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE contributions
		SET status = 'failed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("fail contribution: %w", err)
	}
	return nil
}

// RefundTx flips completed to refunded; any other starting status is an
// invalid transition.
func (r *Repository) RefundTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE contributions
		SET status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND status = 'completed'`, id)
	if err != nil {
		return fmt.Errorf("refund contribution: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("refund contribution rows: %w", err)
	}
	if rows == 0 {
		return ErrInvalidState
	}
	return nil
}

func (r *Repository) ListByWishlist(ctx context.Context, wishlistID uuid.UUID, limit, offset int) ([]Contribution, error) {
	rows := []Contribution{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM contributions
		WHERE wishlist_id = $1 AND status = 'completed'
		ORDER BY paid_at DESC
		LIMIT $2 OFFSET $3`, wishlistID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	return rows, nil
}

func (r *Repository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]Contribution, error) {
	rows := []Contribution{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM contributions
		WHERE wishlist_item_id = $1 AND status = 'completed'
		ORDER BY paid_at DESC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list item contributions: %w", err)
	}
	return rows, nil
}
