package withdrawal

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
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

func (r *Repository) InsertTx(ctx context.Context, tx *sqlx.Tx, req *Request) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO withdrawal_requests (id, user_id, wallet_id, payout_method_id, amount, fee, net_amount,
		                                 status, payment_reference)
		VALUES (:id, :user_id, :wallet_id, :payout_method_id, :amount, :fee, :net_amount,
		        :status, :payment_reference)
	`, req)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := r.db.GetContext(ctx, &req, `SELECT * FROM withdrawal_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByReference finds a withdrawal by its payment reference, the key the
// provider echoes back in transfer webhooks.
func (r *Repository) GetByReference(ctx context.Context, reference string) (*Request, error) {
	var req Request
	err := r.db.GetContext(ctx, &req, `SELECT * FROM withdrawal_requests WHERE payment_reference = $1`, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// LockTx loads a withdrawal with a row lock so the status guard and the
// balance move commit atomically.
func (r *Repository) LockTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Request, error) {
	var req Request
	err := tx.GetContext(ctx, &req, `SELECT * FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// TransitionTx moves a withdrawal from one of the allowed statuses to the
// target status. Returns ErrInvalidState when the row is not in an allowed
// status, which is the idempotency/state guard for every lifecycle step.
func (r *Repository) TransitionTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from []Status, to Status) error {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = ANY($3)
	`, string(to), id, pq.Array(allowed))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidState
	}
	return nil
}

// MarkProcessing guards pending -> processing outside a balance transaction
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET status = 'processing', updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidState
	}
	return nil
}

func (r *Repository) SetTransferCode(ctx context.Context, id uuid.UUID, transferCode string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET transfer_code = $1, updated_at = now()
		WHERE id = $2
	`, transferCode, id)
	return err
}

// FinalizeTx stamps processed_at and an optional failure reason inside the
// same transaction as the terminal status transition.
func (r *Repository) FinalizeTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, failureReason string) error {
	var reason interface{}
	if failureReason != "" {
		reason = failureReason
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET processed_at = now(), failure_reason = $1, updated_at = now()
		WHERE id = $2
	`, reason, id)
	return err
}

// ListByUser returns the user's withdrawal history, newest first
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Request, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `
		SELECT count(*) FROM withdrawal_requests WHERE user_id = $1
	`, userID); err != nil {
		return nil, 0, err
	}

	var requests []Request
	err := r.db.SelectContext(ctx, &requests, `
		SELECT * FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}
