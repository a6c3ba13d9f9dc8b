package withdrawal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wishpool/wishpool-api/internal/domain/payout"
	"github.com/wishpool/wishpool-api/internal/domain/wallet"
)

// PayoutMethods resolves and loads verified transfer destinations
type PayoutMethods interface {
	Resolve(ctx context.Context, userID uuid.UUID, sel payout.Selector) (*payout.Method, error)
	Get(ctx context.Context, methodID uuid.UUID) (*payout.Method, error)
}

// TransferClient initiates outbound provider transfers. Calls are not
// retried; any error fails the withdrawal.
type TransferClient interface {
	InitiateTransfer(ctx context.Context, recipientCode string, amount decimal.Decimal, reference, reason string) (transferCode string, err error)
}

// Notifier delivers user-facing money notifications. Best effort, fired
// after the owning transaction commits.
type Notifier interface {
	NotifyPendingTransaction(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string)
	NotifyWithdrawalSuccess(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string)
	NotifyWithdrawalFailed(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference, reason string)
}

type Service struct {
	repo     *Repository
	wallets  *wallet.Repository
	methods  PayoutMethods
	transfer TransferClient
	notifier Notifier
	minimum  decimal.Decimal
}

func NewService(repo *Repository, wallets *wallet.Repository, methods PayoutMethods, transfer TransferClient, notifier Notifier, minimum decimal.Decimal) *Service {
	return &Service{
		repo:     repo,
		wallets:  wallets,
		methods:  methods,
		transfer: transfer,
		notifier: notifier,
		minimum:  minimum,
	}
}

// Create validates the amount, resolves a verified payout destination, and
// atomically reserves the amount from the wallet while inserting the
// pending request and its withdrawal + fee ledger entries.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, sel payout.Selector) (*Request, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if amount.LessThan(s.minimum) {
		return nil, ErrBelowMinimum
	}

	// Provider verification happens before any balance is touched so the
	// reservation never waits on the network.
	method, err := s.methods.Resolve(ctx, userID, sel)
	if err != nil {
		return nil, err
	}

	fee := Fee(amount)
	req := &Request{
		ID:               uuid.New(),
		UserID:           userID,
		PayoutMethodID:   method.ID,
		Amount:           amount,
		Fee:              fee,
		NetAmount:        amount.Sub(fee),
		Status:           StatusPending,
		PaymentReference: "wd-" + uuid.NewString(),
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := s.wallets.LockTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	req.WalletID = w.ID

	meta := map[string]string{"withdrawal_id": req.ID.String()}
	if err := s.wallets.ReserveTx(ctx, tx, userID, amount, req.PaymentReference, meta); err != nil {
		return nil, err
	}
	// Fee entry is audit-only: the full amount was reserved above
	if err := s.wallets.InsertFeeEntryTx(ctx, tx, userID, fee, req.PaymentReference, meta); err != nil {
		return nil, err
	}
	if err := s.repo.InsertTx(ctx, tx, req); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info().
		Str("withdrawal_id", req.ID.String()).
		Str("user_id", userID.String()).
		Str("amount", amount.String()).
		Str("fee", fee.String()).
		Msg("withdrawal created")

	s.notifier.NotifyPendingTransaction(ctx, userID, amount, req.PaymentReference)

	return req, nil
}

// Process moves a pending withdrawal into processing and initiates the
// provider transfer for the net amount. A provider failure triggers the
// Fail transition (balance reversal) before the error is re-raised, so
// callers never reconcile balances themselves.
func (s *Service) Process(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	method, err := s.methods.Get(ctx, req.PayoutMethodID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkProcessing(ctx, id); err != nil {
		return nil, err
	}

	transferCode, err := s.transfer.InitiateTransfer(ctx, method.RecipientCode, req.NetAmount, req.PaymentReference, "wishpool withdrawal")
	if err != nil {
		log.Error().Err(err).
			Str("withdrawal_id", id.String()).
			Msg("transfer initiation failed, reversing reservation")

		if failErr := s.Fail(ctx, id, err.Error()); failErr != nil {
			log.Error().Err(failErr).
				Str("withdrawal_id", id.String()).
				Msg("failed to reverse withdrawal after provider error")
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	if err := s.repo.SetTransferCode(ctx, id, transferCode); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// Complete finalizes a processing withdrawal: the reservation drains into
// lifetime withdrawn. Only processing -> completed is allowed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	req, err := s.repo.LockTx(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := s.repo.TransitionTx(ctx, tx, id, []Status{StatusProcessing}, StatusCompleted); err != nil {
		return err
	}
	if err := s.repo.FinalizeTx(ctx, tx, id, ""); err != nil {
		return err
	}
	if err := s.wallets.SettleTx(ctx, tx, req.UserID, req.Amount); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info().Str("withdrawal_id", id.String()).Msg("withdrawal completed")
	s.notifier.NotifyWithdrawalSuccess(ctx, req.UserID, req.Amount, req.PaymentReference)
	return nil
}

// Fail reverses the reservation and records the reason. Allowed from
// pending and processing; the single reconciliation point for both
// provider failures and admin-marked failures.
func (s *Service) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	req, err := s.repo.LockTx(ctx, tx, id)
	if err != nil {
		return err
	}

	if err := s.repo.TransitionTx(ctx, tx, id, []Status{StatusPending, StatusProcessing}, StatusFailed); err != nil {
		return err
	}
	if err := s.repo.FinalizeTx(ctx, tx, id, reason); err != nil {
		return err
	}

	meta := map[string]string{"withdrawal_id": id.String(), "reason": reason}
	if err := s.wallets.ReleaseTx(ctx, tx, req.UserID, req.Amount, req.PaymentReference, meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Warn().
		Str("withdrawal_id", id.String()).
		Str("reason", reason).
		Msg("withdrawal failed")

	s.notifier.NotifyWithdrawalFailed(ctx, req.UserID, req.Amount, req.PaymentReference, reason)
	return nil
}

// CompleteByReference settles the withdrawal a transfer.success webhook
// points at. Idempotent for duplicate delivery: an already-completed
// withdrawal is left alone.
func (s *Service) CompleteByReference(ctx context.Context, reference string) error {
	req, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return err
	}
	if req.Status == StatusCompleted {
		return nil
	}
	return s.Complete(ctx, req.ID)
}

// FailByReference reverses the withdrawal a transfer.failed webhook points
// at. Terminal statuses are left alone.
func (s *Service) FailByReference(ctx context.Context, reference, reason string) error {
	req, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return err
	}
	if IsTerminal(req.Status) {
		return nil
	}
	return s.Fail(ctx, req.ID, reason)
}

// Cancel reverses the reservation like Fail, without a failure reason.
// Only the owner may cancel, and only while still pending.
func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	req, err := s.repo.LockTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if req.UserID != userID {
		return ErrNotOwner
	}

	if err := s.repo.TransitionTx(ctx, tx, id, []Status{StatusPending}, StatusCancelled); err != nil {
		return err
	}

	meta := map[string]string{"withdrawal_id": id.String()}
	if err := s.wallets.ReleaseTx(ctx, tx, userID, req.Amount, req.PaymentReference, meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info().Str("withdrawal_id", id.String()).Msg("withdrawal cancelled")
	return nil
}

// Get returns a withdrawal owned by the user
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, ErrNotOwner
	}
	return req, nil
}

// List returns the user's withdrawal history
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Request, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// IsTerminal reports whether a status admits no further transitions
func IsTerminal(s Status) bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
