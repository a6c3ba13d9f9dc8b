package notification

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Service handles notification logic. The Notify* helpers are fire-and-log:
// a failed notification never fails the money movement that triggered it.
type Service struct {
	repo Repository
}

// NewService creates notification service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a notification
func (s *Service) Create(ctx context.Context, userID uuid.UUID, notifType Type, title, body string, data *NotificationData) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	if body != "" {
		n.Body = sql.NullString{String: body, Valid: true}
	}
	n.SetData(data)

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	return n, nil
}

// List returns notifications for user
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// GetUnreadCount returns unread count
func (s *Service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnreadByUser(ctx, userID)
}

// MarkAsRead marks single notification as read
func (s *Service) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// --- Helper methods for creating specific notifications ---

// NotifyMoneyReceived notifies a wishlist owner about a settled contribution
func (s *Service) NotifyMoneyReceived(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, contributor, reference string) {
	_, err := s.Create(ctx, userID, TypeMoneyReceived,
		"You received money!",
		contributor+" contributed NGN "+amount.StringFixed(2)+" to your wishlist",
		&NotificationData{Reference: reference, Amount: amount.StringFixed(2)},
	)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("money-received notification failed")
	}
}

// NotifyPendingTransaction notifies the user that a withdrawal debit is reserved
func (s *Service) NotifyPendingTransaction(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) {
	_, err := s.Create(ctx, userID, TypeWithdrawalPending,
		"Withdrawal initiated",
		"NGN "+amount.StringFixed(2)+" has been reserved for your withdrawal",
		&NotificationData{Reference: reference, Amount: amount.StringFixed(2)},
	)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("pending-transaction notification failed")
	}
}

// NotifyWithdrawalSuccess notifies the user that the bank transfer went through
func (s *Service) NotifyWithdrawalSuccess(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) {
	_, err := s.Create(ctx, userID, TypeWithdrawalSuccess,
		"Withdrawal completed",
		"NGN "+amount.StringFixed(2)+" is on its way to your bank account",
		&NotificationData{Reference: reference, Amount: amount.StringFixed(2)},
	)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("withdrawal-success notification failed")
	}
}

// NotifyWithdrawalFailed notifies the user that the transfer failed and funds are back
func (s *Service) NotifyWithdrawalFailed(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference, reason string) {
	_, err := s.Create(ctx, userID, TypeWithdrawalFailed,
		"Withdrawal failed",
		"Your withdrawal of NGN "+amount.StringFixed(2)+" failed and the funds were returned to your wallet",
		&NotificationData{Reference: reference, Amount: amount.StringFixed(2), Reason: reason},
	)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("withdrawal-failed notification failed")
	}
}
