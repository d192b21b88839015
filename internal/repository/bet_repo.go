package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/yomifun/zeny/internal/domain"
)

// BetRepository handles all database operations for bets.
type BetRepository struct {
	db *sqlx.DB
}

// NewBetRepository creates a new BetRepository.
func NewBetRepository(db *sqlx.DB) *BetRepository {
	return &BetRepository{db: db}
}

// Create inserts a bet inside the placement transaction. The bets table
// carries a unique constraint on (user_id, market_id); a violation means the
// user already wagered on this market and maps to ErrAlreadyBet. The
// constraint is the canonical guard, not the advisory pre-check.
func (r *BetRepository) Create(ctx context.Context, tx *sqlx.Tx, b *domain.Bet) error {
	query := `
		INSERT INTO bets
			(id, user_id, market_id, outcome_id, amount, direction,
			 odds_at_bet, potential_payout, status, placed_at, resolved_at)
		VALUES
			(:id, :user_id, :market_id, :outcome_id, :amount, :direction,
			 :odds_at_bet, :potential_payout, :status, :placed_at, :resolved_at)`
	if _, err := tx.NamedExecContext(ctx, query, b); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrAlreadyBet
		}
		return fmt.Errorf("bet_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a bet by primary key.
func (r *BetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bet, error) {
	var b domain.Bet
	err := r.db.GetContext(ctx, &b, `SELECT * FROM bets WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBetNotFound
		}
		return nil, fmt.Errorf("bet_repo.GetByID: %w", err)
	}
	return &b, nil
}

// ExistsForUserMarket reports whether the user already holds a bet on the
// market. Advisory fast path; the unique constraint remains authoritative.
func (r *BetRepository) ExistsForUserMarket(ctx context.Context, tx *sqlx.Tx, userID, marketID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM bets WHERE user_id = $1 AND market_id = $2)`,
		userID, marketID)
	if err != nil {
		return false, fmt.Errorf("bet_repo.ExistsForUserMarket: %w", err)
	}
	return exists, nil
}

// GetByUser returns a user's bets newest first, paginated.
func (r *BetRepository) GetByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Bet, error) {
	var bets []*domain.Bet
	err := r.db.SelectContext(ctx, &bets,
		`SELECT * FROM bets WHERE user_id = $1 ORDER BY placed_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("bet_repo.GetByUser: %w", err)
	}
	return bets, nil
}

// GetPendingByMarket returns all unsettled bets on a market. The resolution
// pass iterates exactly this set.
func (r *BetRepository) GetPendingByMarket(ctx context.Context, marketID uuid.UUID) ([]*domain.Bet, error) {
	var bets []*domain.Bet
	err := r.db.SelectContext(ctx, &bets,
		`SELECT * FROM bets WHERE market_id = $1 AND status = 'pending' ORDER BY placed_at ASC`,
		marketID)
	if err != nil {
		return nil, fmt.Errorf("bet_repo.GetPendingByMarket: %w", err)
	}
	return bets, nil
}

// Settle moves a pending bet to its terminal status inside a settlement
// transaction. The status guard in the WHERE clause makes settlement
// idempotent: a bet another pass already settled reports settled=false and
// the caller skips the payout.
func (r *BetRepository) Settle(ctx context.Context, tx *sqlx.Tx, betID uuid.UUID, status domain.BetStatus) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE bets SET status = $1, resolved_at = now() WHERE id = $2 AND status = 'pending'`,
		status, betID)
	if err != nil {
		return false, fmt.Errorf("bet_repo.Settle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("bet_repo.Settle: %w", err)
	}
	return n > 0, nil
}

// CountByMarket returns how many bets a market holds, settled or not.
func (r *BetRepository) CountByMarket(ctx context.Context, marketID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bets WHERE market_id = $1`, marketID)
	if err != nil {
		return 0, fmt.Errorf("bet_repo.CountByMarket: %w", err)
	}
	return n, nil
}

// CountPending returns the number of unsettled bets platform-wide.
func (r *BetRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bets WHERE status = 'pending'`)
	if err != nil {
		return 0, fmt.Errorf("bet_repo.CountPending: %w", err)
	}
	return n, nil
}
