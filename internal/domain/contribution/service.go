package contribution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wishpool/wishpool-api/internal/domain/wallet"
	"github.com/wishpool/wishpool-api/internal/domain/wishlist"
	"github.com/wishpool/wishpool-api/internal/pkg/paystack"
)

// Charger is the payment-provider surface the settlement flow consumes
type Charger interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.ChargeVerification, error)
}

// Notifier delivers the money-received notification to the wishlist owner
type Notifier interface {
	NotifyMoneyReceived(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, contributor, reference string)
}

type Service struct {
	repo      *Repository
	wishlists *wishlist.Repository
	wallets   *wallet.Repository
	charger   Charger
	notifier  Notifier
}

func NewService(repo *Repository, wishlists *wishlist.Repository, wallets *wallet.Repository, charger Charger, notifier Notifier) *Service {
	return &Service{
		repo:      repo,
		wishlists: wishlists,
		wallets:   wallets,
		charger:   charger,
		notifier:  notifier,
	}
}

type ContributorInput struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Message     string `json:"message" validate:"max=500"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// InitiateResult pairs the pending rows with the provider checkout URL
type InitiateResult struct {
	Contributions    []Contribution `json:"contributions"`
	Reference        string         `json:"reference"`
	AuthorizationURL string         `json:"authorization_url"`
}

// Initiate creates a pending contribution toward one item and opens a
// provider charge for it. The row stays pending until the webhook or the
// verify fallback confirms payment.
func (s *Service) Initiate(ctx context.Context, itemID uuid.UUID, amount decimal.Decimal, in ContributorInput) (*InitiateResult, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	item, err := s.wishlists.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	reference := "ct-" + uuid.New().String()
	c := &Contribution{
		ID:               uuid.New(),
		WishlistID:       item.WishlistID,
		WishlistItemID:   item.ID,
		Amount:           amount,
		Status:           StatusPending,
		PaymentReference: reference,
		ContributorName:  in.Name,
		ContributorEmail: in.Email,
		IsAnonymous:      in.IsAnonymous,
	}
	if in.Message != "" {
		c.Message = sql.NullString{String: in.Message, Valid: true}
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	init, err := s.charger.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:     in.Email,
		Amount:    amount,
		Reference: reference,
		Metadata: map[string]string{
			"wishlist_id":      item.WishlistID.String(),
			"wishlist_item_id": item.ID.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	return &InitiateResult{
		Contributions:    []Contribution{*c},
		Reference:        reference,
		AuthorizationURL: init.AuthorizationURL,
	}, nil
}

// ContributeToAll splits one lump payment across a wishlist's unfunded
// items and opens a single provider charge for the full amount. One
// pending row is created per item with a positive share; the rows share a
// base reference so the confirmation settles them together. A row that
// fails to insert is logged and skipped, it does not abort the batch.
func (s *Service) ContributeToAll(ctx context.Context, wishlistID uuid.UUID, total decimal.Decimal, strategy Strategy, in ContributorInput) (*InitiateResult, error) {
	list, err := s.wishlists.GetWishlist(ctx, wishlistID)
	if err != nil {
		return nil, err
	}

	items, err := s.wishlists.ListUnfundedItems(ctx, wishlistID)
	if err != nil {
		return nil, err
	}

	allocations, err := Allocate(total, items, strategy)
	if err != nil {
		return nil, err
	}

	baseRef := "ct-" + uuid.New().String()
	created := []Contribution{}
	for _, alloc := range allocations {
		if !alloc.Amount.IsPositive() {
			continue
		}
		c := &Contribution{
			ID:               uuid.New(),
			WishlistID:       list.ID,
			WishlistItemID:   alloc.ItemID,
			Amount:           alloc.Amount,
			Status:           StatusPending,
			PaymentReference: baseRef + "-" + alloc.ItemID.String(),
			ContributorName:  in.Name,
			ContributorEmail: in.Email,
			IsAnonymous:      in.IsAnonymous,
		}
		if in.Message != "" {
			c.Message = sql.NullString{String: in.Message, Valid: true}
		}
		if err := s.repo.Create(ctx, c); err != nil {
			log.Error().Err(err).
				Str("item_id", alloc.ItemID.String()).
				Str("reference", c.PaymentReference).
				Msg("contribute-to-all row creation failed")
			continue
		}
		created = append(created, *c)
	}
	if len(created) == 0 {
		return nil, ErrNoUnfundedItems
	}

	init, err := s.charger.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:     in.Email,
		Amount:    total,
		Reference: baseRef,
		Metadata: map[string]string{
			"wishlist_id": wishlistID.String(),
			"strategy":    string(strategy),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	return &InitiateResult{
		Contributions:    created,
		Reference:        baseRef,
		AuthorizationURL: init.AuthorizationURL,
	}, nil
}

// Settle converts a provider payment confirmation into balance state for
// every contribution row behind the reference. Each row settles in its own
// transaction: the status flip, the item credit and the wishlist
// re-aggregation commit together or not at all. Rows already completed are
// skipped without re-applying deltas, which makes retried webhook delivery
// harmless.
func (s *Service) Settle(ctx context.Context, reference, providerRef string) error {
	rows, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return err
	}

	for i := range rows {
		if err := s.settleOne(ctx, rows[i].ID, providerRef); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) settleOne(ctx context.Context, id uuid.UUID, providerRef string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback()

	c, err := s.repo.LockTx(ctx, tx, id)
	if err != nil {
		return err
	}

	switch c.Status {
	case StatusCompleted:
		// duplicate delivery, already settled
		return nil
	case StatusPending:
	default:
		return ErrInvalidState
	}

	completed, err := s.repo.CompleteTx(ctx, tx, c.ID, providerRef)
	if err != nil {
		return err
	}
	if !completed {
		return ErrInvalidState
	}

	if _, err := s.wishlists.LockItemTx(ctx, tx, c.WishlistItemID); err != nil {
		return err
	}
	if err := s.wishlists.CreditItemTx(ctx, tx, c.WishlistItemID, c.Amount); err != nil {
		return err
	}
	if err := s.wishlists.RecomputeAggregatesTx(ctx, tx, c.WishlistID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settlement: %w", err)
	}

	list, err := s.wishlists.GetWishlist(ctx, c.WishlistID)
	if err != nil {
		log.Error().Err(err).Str("wishlist_id", c.WishlistID.String()).Msg("settled but owner lookup failed")
		return nil
	}
	s.notifier.NotifyMoneyReceived(ctx, list.UserID, c.Amount, c.DisplayName(), c.PaymentReference)

	log.Info().
		Str("contribution_id", c.ID.String()).
		Str("reference", c.PaymentReference).
		Str("amount", c.Amount.String()).
		Msg("contribution settled")
	return nil
}

// VerifyAndSettle is the fallback for missed webhooks: it asks the
// provider for the charge's state and settles or fails the rows
// accordingly.
func (s *Service) VerifyAndSettle(ctx context.Context, reference string) error {
	verification, err := s.charger.VerifyTransaction(ctx, reference)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	switch verification.Status {
	case "success":
		return s.Settle(ctx, reference, fmt.Sprintf("%d", verification.ID))
	case "failed", "abandoned":
		return s.failByReference(ctx, reference)
	default:
		return ErrPaymentNotPaid
	}
}

func (s *Service) failByReference(ctx context.Context, reference string) error {
	rows, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin fail: %w", err)
	}
	defer tx.Rollback()

	for i := range rows {
		if err := s.repo.FailTx(ctx, tx, rows[i].ID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fail: %w", err)
	}
	return nil
}

// Refund reverses a completed contribution. The item and wishlist
// bookkeeping are always rewound; the owner's wallet is debited only if it
// still holds enough, otherwise the debit is skipped and reported on the
// result rather than overdrafting.
func (s *Service) Refund(ctx context.Context, id uuid.UUID) (*RefundResult, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin refund: %w", err)
	}
	defer tx.Rollback()

	c, err := s.repo.LockTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RefundTx(ctx, tx, c.ID); err != nil {
		return nil, err
	}

	if _, err := s.wishlists.LockItemTx(ctx, tx, c.WishlistItemID); err != nil {
		return nil, err
	}
	if err := s.wishlists.RefundItemTx(ctx, tx, c.WishlistItemID, c.Amount); err != nil {
		return nil, err
	}
	if err := s.wishlists.RecomputeAggregatesTx(ctx, tx, c.WishlistID); err != nil {
		return nil, err
	}

	list, err := s.wishlists.GetWishlist(ctx, c.WishlistID)
	if err != nil {
		return nil, err
	}

	skipped := false
	meta := map[string]string{"contribution_id": c.ID.String()}
	err = s.wallets.DebitTx(ctx, tx, list.UserID, c.Amount, wallet.EntryTypeRefund, c.PaymentReference, meta)
	switch {
	case err == nil:
	case errors.Is(err, wallet.ErrInsufficientBalance):
		// owner already spent the money; item bookkeeping is still
		// reversed, the wallet is left alone
		skipped = true
		log.Warn().
			Str("contribution_id", c.ID.String()).
			Str("user_id", list.UserID.String()).
			Msg("refund wallet debit skipped, insufficient balance")
	default:
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit refund: %w", err)
	}

	refunded, err := s.repo.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &RefundResult{Contribution: refunded, WalletDebitSkipped: skipped}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Contribution, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByWishlist(ctx context.Context, wishlistID uuid.UUID, limit, offset int) ([]Contribution, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByWishlist(ctx, wishlistID, limit, offset)
}
