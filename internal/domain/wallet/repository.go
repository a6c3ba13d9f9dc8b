package wallet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

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

// BeginTx starts a transaction for composed balance operations
func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// GetOrCreate returns the user's wallet, creating a zero-balance row on
// first touch. Safe under concurrent first-touch via the user_id uniqueness
// constraint.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New(), userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := r.db.GetContext(ctx, &w, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByUserID returns the wallet without creating it
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	var w Wallet
	err := r.db.GetContext(ctx, &w, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// LockTx gets-or-creates the wallet and takes a row lock on it. All balance
// mutations in the same transaction serialize behind this lock.
func (r *Repository) LockTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*Wallet, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New(), userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := tx.GetContext(ctx, &w, `SELECT * FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreditTx adds amount to available balance and lifetime received, appending
// a ledger entry of the given type. Used by contribution settlement and the
// item-to-wallet transfer.
func (r *Repository) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal, entryType EntryType, reference string, metadata map[string]string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	w, err := r.LockTx(ctx, tx, userID)
	if err != nil {
		return err
	}

	before := w.AvailableBalance
	after := before.Add(amount)

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET available_balance = $1,
		    total_received = total_received + $2,
		    updated_at = now()
		WHERE id = $3
	`, after, amount, w.ID); err != nil {
		return err
	}

	return r.insertEntryTx(ctx, tx, w.ID, entryType, amount, before, after, reference, metadata)
}

// DebitTx removes amount from available balance, appending a ledger entry of
// the given type with a negative amount. Fails with ErrInsufficientBalance
// rather than going negative.
func (r *Repository) DebitTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal, entryType EntryType, reference string, metadata map[string]string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	w, err := r.LockTx(ctx, tx, userID)
	if err != nil {
		return err
	}

	before := w.AvailableBalance
	after := before.Sub(amount)
	if after.IsNegative() {
		return ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET available_balance = $1, updated_at = now()
		WHERE id = $2
	`, after, w.ID); err != nil {
		return err
	}

	return r.insertEntryTx(ctx, tx, w.ID, entryType, amount.Neg(), before, after, reference, metadata)
}

// ReserveTx moves amount from available into pending for an in-flight
// withdrawal and appends the withdrawal ledger entry for the full amount.
func (r *Repository) ReserveTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal, reference string, metadata map[string]string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	w, err := r.LockTx(ctx, tx, userID)
	if err != nil {
		return err
	}

	before := w.AvailableBalance
	after := before.Sub(amount)
	if after.IsNegative() {
		return ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET available_balance = $1,
		    pending_balance = pending_balance + $2,
		    updated_at = now()
		WHERE id = $3
	`, after, amount, w.ID); err != nil {
		return err
	}

	return r.insertEntryTx(ctx, tx, w.ID, EntryTypeWithdrawal, amount.Neg(), before, after, reference, metadata)
}

// ReleaseTx reverses a reservation (failed or cancelled withdrawal): moves
// amount from pending back into available and appends a refund entry.
func (r *Repository) ReleaseTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal, reference string, metadata map[string]string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	w, err := r.LockTx(ctx, tx, userID)
	if err != nil {
		return err
	}

	if w.PendingBalance.LessThan(amount) {
		return ErrInsufficientPending
	}

	before := w.AvailableBalance
	after := before.Add(amount)

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET available_balance = $1,
		    pending_balance = pending_balance - $2,
		    updated_at = now()
		WHERE id = $3
	`, after, amount, w.ID); err != nil {
		return err
	}

	return r.insertEntryTx(ctx, tx, w.ID, EntryTypeRefund, amount, before, after, reference, metadata)
}

// SettleTx finalizes a completed withdrawal: drains the reservation into
// lifetime withdrawn. The withdrawal ledger entry was appended at reserve
// time, so no new entry is written here.
func (r *Repository) SettleTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	w, err := r.LockTx(ctx, tx, userID)
	if err != nil {
		return err
	}

	if w.PendingBalance.LessThan(amount) {
		return ErrInsufficientPending
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets
		SET pending_balance = pending_balance - $1,
		    total_withdrawn = total_withdrawn + $1,
		    updated_at = now()
		WHERE id = $2
	`, amount, w.ID)
	return err
}

// InsertFeeEntryTx appends an informational fee entry. Fee entries do not
// move balances, so balance_before equals balance_after and summing all
// entry amounts for a wallet deliberately overstates debits by the fees.
func (r *Repository) InsertFeeEntryTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, fee decimal.Decimal, reference string, metadata map[string]string) error {
	if !fee.IsPositive() {
		return ErrInvalidAmount
	}

	w, err := r.LockTx(ctx, tx, userID)
	if err != nil {
		return err
	}

	return r.insertEntryTx(ctx, tx, w.ID, EntryTypeFee, fee.Neg(), w.AvailableBalance, w.AvailableBalance, reference, metadata)
}

func (r *Repository) insertEntryTx(ctx context.Context, tx *sqlx.Tx, walletID uuid.UUID, entryType EntryType, amount, before, after decimal.Decimal, reference string, metadata map[string]string) error {
	var meta interface{}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		meta = raw
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, wallet_id, type, amount, balance_before, balance_after, reference, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), walletID, string(entryType), amount, before, after, reference, meta)
	return err
}

// ListTransactions returns a page of ledger entries, newest first
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, int, error) {
	w, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `
		SELECT count(*) FROM wallet_transactions WHERE wallet_id = $1
	`, w.ID); err != nil {
		return nil, 0, err
	}

	var entries []Transaction
	err = r.db.SelectContext(ctx, &entries, `
		SELECT * FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, w.ID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
