package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/repository"
)

// ProfileService exposes balance, stats, ledger history and the credit paths
// that do not belong to betting: payment top-ups and admin adjustments.
type ProfileService struct {
	db          *sqlx.DB
	profileRepo *repository.ProfileRepository
	logger      *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(db *sqlx.DB, profileRepo *repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{db: db, profileRepo: profileRepo, logger: logger}
}

// GetProfile returns a user's profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return s.profileRepo.GetByUserID(ctx, userID)
}

// GetTransactions returns a user's ledger history, newest first.
func (s *ProfileService) GetTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.ZenyTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.profileRepo.GetTransactions(ctx, userID, limit, offset)
}

// Leaderboard returns the top profiles by total winnings.
func (s *ProfileService) Leaderboard(ctx context.Context, limit int) ([]*domain.Profile, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.profileRepo.Leaderboard(ctx, limit)
}

// TopUp credits Zeny from a confirmed payment. Called by the payment webhook
// after the shared-secret check; the credit and its ledger entry commit
// atomically.
func (s *ProfileService) TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, paymentRef string) (err error) {
	if !amount.IsPositive() {
		return fmt.Errorf("profile_service.TopUp: amount must be positive")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("profile_service.TopUp: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	profile, err := s.profileRepo.GetForUpdate(ctx, tx, userID)
	if err != nil {
		return err
	}
	if err = s.profileRepo.Credit(ctx, tx, userID, amount); err != nil {
		return err
	}

	txn := &domain.ZenyTransaction{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          domain.TxTopUp,
		Amount:        amount,
		BalanceBefore: profile.Balance,
		BalanceAfter:  profile.Balance.Add(amount),
		Description:   fmt.Sprintf("Top-up (payment %s)", paymentRef),
		CreatedAt:     nowUTC(),
	}
	if err = s.profileRepo.LogTransaction(ctx, tx, txn); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("profile_service.TopUp: commit: %w", err)
	}

	s.logger.Info("balance topped up", "user_id", userID, "amount", amount, "payment_ref", paymentRef)
	return nil
}

// AdminAdjust applies a signed balance correction from the back-office.
func (s *ProfileService) AdminAdjust(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reason string) (err error) {
	if amount.IsZero() {
		return fmt.Errorf("profile_service.AdminAdjust: amount must be non-zero")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("profile_service.AdminAdjust: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	profile, err := s.profileRepo.GetForUpdate(ctx, tx, userID)
	if err != nil {
		return err
	}
	newBalance := profile.Balance.Add(amount)
	if newBalance.IsNegative() {
		err = domain.ErrInsufficientBalance
		return err
	}
	if err = s.profileRepo.Credit(ctx, tx, userID, amount); err != nil {
		return err
	}

	txn := &domain.ZenyTransaction{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          domain.TxAdmin,
		Amount:        amount,
		BalanceBefore: profile.Balance,
		BalanceAfter:  newBalance,
		Description:   reason,
		CreatedAt:     nowUTC(),
	}
	if err = s.profileRepo.LogTransaction(ctx, tx, txn); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("profile_service.AdminAdjust: commit: %w", err)
	}

	s.logger.Info("admin balance adjustment", "user_id", userID, "amount", amount, "reason", reason)
	return nil
}
