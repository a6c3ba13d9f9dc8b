package payout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	bankListCacheKey = "paystack:banks"
	bankListCacheTTL = 24 * time.Hour
)

// Verifier is the provider boundary for account verification and recipient
// management. Calls may be slow or fail; none are retried here.
type Verifier interface {
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (accountName string, err error)
	CreateTransferRecipient(ctx context.Context, accountNumber, accountName, bankCode string) (recipientCode string, err error)
	ListBanks(ctx context.Context) ([]Bank, error)
}

type Service struct {
	repo     *Repository
	verifier Verifier
	cache    *redis.Client // optional
}

func NewService(repo *Repository, verifier Verifier, cache *redis.Client) *Service {
	return &Service{repo: repo, verifier: verifier, cache: cache}
}

// AddMethod verifies the account with the provider, registers a transfer
// recipient, and saves the method. The first saved method becomes primary.
func (s *Service) AddMethod(ctx context.Context, userID uuid.UUID, accountNumber, bankCode, bankName string, makePrimary bool) (*Method, error) {
	accountName, err := s.verifier.ResolveAccount(ctx, accountNumber, bankCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	recipientCode, err := s.verifier.CreateTransferRecipient(ctx, accountNumber, accountName, bankCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	count, err := s.repo.CountSaved(ctx, userID)
	if err != nil {
		return nil, err
	}

	m := &Method{
		ID:            uuid.New(),
		UserID:        userID,
		BankName:      bankName,
		BankCode:      bankCode,
		AccountNumber: accountNumber,
		AccountName:   accountName,
		RecipientCode: recipientCode,
		IsVerified:    true,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	if makePrimary || count == 0 {
		if err := s.repo.SetPrimary(ctx, userID, m.ID); err != nil {
			return nil, err
		}
		m.IsPrimary = true
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("method_id", m.ID.String()).
		Str("bank_code", bankCode).
		Msg("payout method added")

	return m, nil
}

// Resolve returns one concrete verified method for the selector: an explicit
// saved method, an inline-verified one-off account, or the user's primary.
func (s *Service) Resolve(ctx context.Context, userID uuid.UUID, sel Selector) (*Method, error) {
	switch {
	case sel.MethodID != nil:
		m, err := s.repo.GetByID(ctx, *sel.MethodID)
		if err != nil {
			return nil, err
		}
		if m.UserID != userID {
			return nil, ErrNotFound
		}
		if !m.IsVerified {
			return nil, ErrNotVerified
		}
		return m, nil

	case sel.Inline != nil:
		accountName, err := s.verifier.ResolveAccount(ctx, sel.Inline.AccountNumber, sel.Inline.BankCode)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
		}
		recipientCode, err := s.verifier.CreateTransferRecipient(ctx, sel.Inline.AccountNumber, accountName, sel.Inline.BankCode)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
		}

		m := &Method{
			ID:               uuid.New(),
			UserID:           userID,
			BankName:         sel.Inline.BankName,
			BankCode:         sel.Inline.BankCode,
			AccountNumber:    sel.Inline.AccountNumber,
			AccountName:      accountName,
			RecipientCode:    recipientCode,
			IsVerified:       true,
			IsNormalTransfer: true,
		}
		if err := s.repo.Create(ctx, m); err != nil {
			return nil, err
		}
		return m, nil

	default:
		m, err := s.repo.GetPrimary(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !m.IsVerified {
			return nil, ErrNotVerified
		}
		return m, nil
	}
}

// Get returns a method by id regardless of owner; callers enforce ownership
func (s *Service) Get(ctx context.Context, methodID uuid.UUID) (*Method, error) {
	return s.repo.GetByID(ctx, methodID)
}

// List returns the user's saved methods
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Method, error) {
	return s.repo.List(ctx, userID)
}

// SetPrimary marks a saved method as the default payout destination
func (s *Service) SetPrimary(ctx context.Context, userID, methodID uuid.UUID) error {
	return s.repo.SetPrimary(ctx, userID, methodID)
}

// Delete removes a saved method
func (s *Service) Delete(ctx context.Context, userID, methodID uuid.UUID) error {
	return s.repo.Delete(ctx, userID, methodID)
}

// ListBanks returns the provider's bank list, cached in Redis when available
func (s *Service) ListBanks(ctx context.Context) ([]Bank, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, bankListCacheKey).Result(); err == nil {
			var banks []Bank
			if err := json.Unmarshal([]byte(cached), &banks); err == nil {
				return banks, nil
			}
		}
	}

	banks, err := s.verifier.ListBanks(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(banks); err == nil {
			if err := s.cache.Set(ctx, bankListCacheKey, raw, bankListCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("failed to cache bank list")
			}
		}
	}

	return banks, nil
}
