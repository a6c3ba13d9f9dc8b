package wishlist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wishpool/wishpool-api/internal/domain/wallet"
)

type Service struct {
	repo    *Repository
	wallets *wallet.Repository
}

func NewService(repo *Repository, wallets *wallet.Repository) *Service {
	return &Service{repo: repo, wallets: wallets}
}

type CreateWishlistInput struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (s *Service) CreateWishlist(ctx context.Context, userID uuid.UUID, in CreateWishlistInput) (*Wishlist, error) {
	w := &Wishlist{
		ID:     uuid.New(),
		UserID: userID,
		Title:  in.Title,
	}
	if in.Description != "" {
		w.Description = sql.NullString{String: in.Description, Valid: true}
	}
	if err := s.repo.CreateWishlist(ctx, w); err != nil {
		return nil, err
	}
	return s.repo.GetWishlist(ctx, w.ID)
}

type AddItemInput struct {
	Name           string          `json:"name" validate:"required,min=1,max=200"`
	Price          decimal.Decimal `json:"price" validate:"required"`
	Priority       *int            `json:"priority" validate:"omitempty,min=1,max=999"`
	IsWithdrawable *bool           `json:"is_withdrawable"`
}

func (s *Service) AddItem(ctx context.Context, userID, wishlistID uuid.UUID, in AddItemInput) (*Item, error) {
	if !in.Price.IsPositive() {
		return nil, ErrInvalidAmount
	}

	w, err := s.repo.GetWishlist(ctx, wishlistID)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, ErrNotOwner
	}

	item := &Item{
		ID:             uuid.New(),
		WishlistID:     wishlistID,
		Name:           in.Name,
		Price:          in.Price,
		IsWithdrawable: true,
	}
	if in.Priority != nil {
		item.Priority = sql.NullInt32{Int32: int32(*in.Priority), Valid: true}
	}
	if in.IsWithdrawable != nil {
		item.IsWithdrawable = *in.IsWithdrawable
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return s.repo.GetItem(ctx, item.ID)
}

func (s *Service) GetWishlist(ctx context.Context, id uuid.UUID) (*Wishlist, []Item, error) {
	w, err := s.repo.GetWishlist(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return w, items, nil
}

func (s *Service) ListWishlists(ctx context.Context, userID uuid.UUID) ([]Wishlist, error) {
	return s.repo.ListWishlistsByUser(ctx, userID)
}

// WithdrawFromItem moves money from an item's available balance into the
// owner's wallet. Amount nil means the full available balance. The item
// debit, wallet credit and withdrawal record commit atomically; the wallet
// ledger entry is contribution-typed because from the wallet's point of
// view this is contributed money arriving.
func (s *Service) WithdrawFromItem(ctx context.Context, userID, itemID uuid.UUID, amount *decimal.Decimal) (*ItemWithdrawal, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	list, err := s.repo.GetWishlist(ctx, item.WishlistID)
	if err != nil {
		return nil, err
	}
	if list.UserID != userID {
		return nil, ErrNotOwner
	}
	if !item.IsWithdrawable {
		return nil, ErrNotWithdrawable
	}
	if !item.AvailableBalance.IsPositive() {
		return nil, ErrNothingToWithdraw
	}

	requested := item.AvailableBalance
	if amount != nil {
		if !amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		if amount.GreaterThan(item.AvailableBalance) {
			return nil, ErrInsufficientBalance
		}
		requested = *amount
	}

	w, err := s.wallets.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin item withdrawal: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.repo.LockItemTx(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if amount == nil {
		// full withdrawal follows the locked balance, not the pre-check read
		requested = locked.AvailableBalance
		if !requested.IsPositive() {
			return nil, ErrNothingToWithdraw
		}
	}

	if err := s.repo.DebitItemTx(ctx, tx, itemID, requested); err != nil {
		return nil, err
	}

	reference := "iw-" + uuid.New().String()
	meta := map[string]string{
		"wishlist_item_id": itemID.String(),
		"wishlist_id":      item.WishlistID.String(),
	}
	if err := s.wallets.CreditTx(ctx, tx, userID, requested, wallet.EntryTypeContribution, reference, meta); err != nil {
		return nil, err
	}

	iw := &ItemWithdrawal{
		ID:             uuid.New(),
		WishlistItemID: itemID,
		WishlistID:     item.WishlistID,
		UserID:         userID,
		WalletID:       w.ID,
		Amount:         requested,
		Status:         ItemWithdrawalCompleted,
		Reference:      reference,
		ProcessedAt:    nowNull(),
	}
	if err := s.repo.InsertItemWithdrawalTx(ctx, tx, iw); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit item withdrawal: %w", err)
	}

	log.Info().
		Str("item_id", itemID.String()).
		Str("user_id", userID.String()).
		Str("amount", requested.String()).
		Msg("item balance withdrawn to wallet")

	return iw, nil
}

// WithdrawAll drains every withdrawable item with a positive balance in the
// wishlist into the owner's wallet. Each item commits independently, so one
// failing item does not roll back the ones already moved.
func (s *Service) WithdrawAll(ctx context.Context, userID, wishlistID uuid.UUID) (*BulkResult, error) {
	list, err := s.repo.GetWishlist(ctx, wishlistID)
	if err != nil {
		return nil, err
	}
	if list.UserID != userID {
		return nil, ErrNotOwner
	}

	items, err := s.repo.ListItems(ctx, wishlistID)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{TotalWithdrawn: decimal.Zero}
	for i := range items {
		item := &items[i]
		if !item.IsWithdrawable || !item.AvailableBalance.IsPositive() {
			continue
		}
		iw, err := s.WithdrawFromItem(ctx, userID, item.ID, nil)
		if err != nil {
			log.Warn().Err(err).
				Str("item_id", item.ID.String()).
				Msg("bulk item withdrawal skipped")
			result.Failures = append(result.Failures, BulkFailure{ItemID: item.ID, Reason: err.Error()})
			continue
		}
		result.Withdrawals = append(result.Withdrawals, *iw)
		result.TotalWithdrawn = result.TotalWithdrawn.Add(iw.Amount)
	}
	return result, nil
}

func nowNull() sql.NullTime {
	return sql.NullTime{Time: time.Now(), Valid: true}
}

func (s *Service) ListItemWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ItemWithdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListItemWithdrawals(ctx, userID, limit, offset)
}
