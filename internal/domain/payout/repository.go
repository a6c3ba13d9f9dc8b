package payout

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, m *Method) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO payout_methods (id, user_id, bank_name, bank_code, account_number, account_name,
		                            recipient_code, is_verified, is_primary, is_normal_transfer)
		VALUES (:id, :user_id, :bank_name, :bank_code, :account_number, :account_name,
		        :recipient_code, :is_verified, :is_primary, :is_normal_transfer)
	`, m)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Method, error) {
	var m Method
	err := r.db.GetContext(ctx, &m, `SELECT * FROM payout_methods WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) GetPrimary(ctx context.Context, userID uuid.UUID) (*Method, error) {
	var m Method
	err := r.db.GetContext(ctx, &m, `
		SELECT * FROM payout_methods
		WHERE user_id = $1 AND is_primary = true
		LIMIT 1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPrimaryMethod
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SetPrimary makes one method primary. The unset and set run as one atomic
// unit; there is no unique constraint backing this, so both steps must
// always go through here.
func (r *Repository) SetPrimary(ctx context.Context, userID, methodID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE payout_methods SET is_primary = false, updated_at = now()
		WHERE user_id = $1 AND is_primary = true
	`, userID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE payout_methods SET is_primary = true, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`, methodID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// List returns the user's saved methods, one-off destinations excluded
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]Method, error) {
	var methods []Method
	err := r.db.SelectContext(ctx, &methods, `
		SELECT * FROM payout_methods
		WHERE user_id = $1 AND is_normal_transfer = false
		ORDER BY is_primary DESC, created_at DESC
	`, userID)
	return methods, err
}

// CountSaved counts the user's saved (non one-off) methods
func (r *Repository) CountSaved(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT count(*) FROM payout_methods
		WHERE user_id = $1 AND is_normal_transfer = false
	`, userID)
	return count, err
}

func (r *Repository) Delete(ctx context.Context, userID, methodID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM payout_methods WHERE id = $1 AND user_id = $2
	`, methodID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
