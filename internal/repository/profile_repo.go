package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/domain"
)

// ProfileRepository handles all database operations for Profiles (Zeny
// balances + stats) and the ZenyTransaction audit ledger.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a new profile row inside an existing transaction.
func (r *ProfileRepository) Create(ctx context.Context, tx *sqlx.Tx, p *domain.Profile) error {
	query := `
		INSERT INTO profiles
			(user_id, display_name, balance, total_bets, total_winnings, xp, level, created_at, updated_at)
		VALUES
			(:user_id, :display_name, :balance, :total_bets, :total_winnings, :xp, :level, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("profile_repo.Create: %w", err)
	}
	return nil
}

// GetByUserID fetches a user's profile.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.GetContext(ctx, &p, `SELECT * FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profile_repo.GetByUserID: %w", err)
	}
	return &p, nil
}

// GetForUpdate locks a profile row with FOR UPDATE inside a transaction and
// returns it. Every balance mutation in a placement or settlement starts here
// so concurrent writers serialise on the row.
func (r *ProfileRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	err := tx.GetContext(ctx, &p, `SELECT * FROM profiles WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profile_repo.GetForUpdate: %w", err)
	}
	return &p, nil
}

// ApplyBetDebit deducts the full stake and applies the per-bet stat bumps
// (total_bets, xp, level) in one statement. The caller must already hold the
// row lock via GetForUpdate and have verified the balance covers the stake.
func (r *ProfileRepository) ApplyBetDebit(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, stake decimal.Decimal, newXP int64, newLevel int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE profiles
		SET balance    = balance - $1,
		    total_bets = total_bets + 1,
		    xp         = $2,
		    level      = $3,
		    updated_at = now()
		WHERE user_id = $4`,
		stake, newXP, newLevel, userID)
	if err != nil {
		return fmt.Errorf("profile_repo.ApplyBetDebit: %w", err)
	}
	return nil
}

// Credit adds amount to a user's balance inside a transaction.
func (r *ProfileRepository) Credit(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE profiles SET balance = balance + $1, updated_at = now() WHERE user_id = $2`,
		amount, userID)
	if err != nil {
		return fmt.Errorf("profile_repo.Credit: %w", err)
	}
	return nil
}

// CreditWinnings adds a payout to both the balance and the running
// total_winnings stat. Used exclusively by the resolution pass.
func (r *ProfileRepository) CreditWinnings(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE profiles
		SET balance        = balance + $1,
		    total_winnings = total_winnings + $1,
		    updated_at     = now()
		WHERE user_id = $2`,
		amount, userID)
	if err != nil {
		return fmt.Errorf("profile_repo.CreditWinnings: %w", err)
	}
	return nil
}

// AdminAdjustBalance applies a signed adjustment to a user's balance directly
// (positive = credit, negative = debit). Used only by the back-office.
func (r *ProfileRepository) AdminAdjustBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET balance = balance + $1, updated_at = now() WHERE user_id = $2`,
		amount, userID)
	if err != nil {
		return fmt.Errorf("profile_repo.AdminAdjustBalance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// Leaderboard returns the top profiles ordered by total winnings.
func (r *ProfileRepository) Leaderboard(ctx context.Context, limit int) ([]*domain.Profile, error) {
	var profiles []*domain.Profile
	err := r.db.SelectContext(ctx, &profiles,
		`SELECT * FROM profiles ORDER BY total_winnings DESC, xp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("profile_repo.Leaderboard: %w", err)
	}
	return profiles, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Zeny ledger
// ──────────────────────────────────────────────────────────────────────────────

// LogTransaction inserts an audit record inside an existing transaction.
func (r *ProfileRepository) LogTransaction(ctx context.Context, tx *sqlx.Tx, txn *domain.ZenyTransaction) error {
	query := `
		INSERT INTO zeny_transactions
			(id, user_id, type, amount, balance_before, balance_after, ref_id, description, created_at)
		VALUES
			(:id, :user_id, :type, :amount, :balance_before, :balance_after, :ref_id, :description, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, txn); err != nil {
		return fmt.Errorf("profile_repo.LogTransaction: %w", err)
	}
	return nil
}

// LogTransactionDirect writes an audit record outside of a transaction (e.g.
// admin adjustments that run without an explicit tx).
func (r *ProfileRepository) LogTransactionDirect(ctx context.Context, txn *domain.ZenyTransaction) error {
	query := `
		INSERT INTO zeny_transactions
			(id, user_id, type, amount, balance_before, balance_after, ref_id, description, created_at)
		VALUES
			(:id, :user_id, :type, :amount, :balance_before, :balance_after, :ref_id, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, txn); err != nil {
		return fmt.Errorf("profile_repo.LogTransactionDirect: %w", err)
	}
	return nil
}

// GetTransactions returns paginated ledger history for a user.
func (r *ProfileRepository) GetTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.ZenyTransaction, error) {
	var txns []*domain.ZenyTransaction
	err := r.db.SelectContext(ctx, &txns, `
		SELECT * FROM zeny_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("profile_repo.GetTransactions: %w", err)
	}
	return txns, nil
}
