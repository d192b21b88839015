package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/domain"
)

// MarketRepository handles all database operations for markets.
type MarketRepository struct {
	db *sqlx.DB
}

// NewMarketRepository creates a new MarketRepository.
func NewMarketRepository(db *sqlx.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

// Create inserts a new market inside an existing transaction.
func (r *MarketRepository) Create(ctx context.Context, tx *sqlx.Tx, m *domain.Market) error {
	query := `
		INSERT INTO markets
			(id, question, type, status, is_live, volume, pool_yes, pool_no,
			 winning_outcome_id, closes_at, resolved_at, created_at, updated_at)
		VALUES
			(:id, :question, :type, :status, :is_live, :volume, :pool_yes, :pool_no,
			 :winning_outcome_id, :closes_at, :resolved_at, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("market_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a market by primary key.
func (r *MarketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Market, error) {
	var m domain.Market
	err := r.db.GetContext(ctx, &m, `SELECT * FROM markets WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, fmt.Errorf("market_repo.GetByID: %w", err)
	}
	return &m, nil
}

// GetForUpdate locks the market row with FOR UPDATE inside a transaction.
// Placement locks here after the profile row so pool and volume updates
// serialise per market.
func (r *MarketRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.Market, error) {
	var m domain.Market
	err := tx.GetContext(ctx, &m, `SELECT * FROM markets WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, fmt.Errorf("market_repo.GetForUpdate: %w", err)
	}
	return &m, nil
}

// List returns markets newest first, optionally filtered by status.
func (r *MarketRepository) List(ctx context.Context, status domain.MarketStatus, limit, offset int) ([]*domain.Market, error) {
	var markets []*domain.Market
	var err error
	if status == "" {
		err = r.db.SelectContext(ctx, &markets,
			`SELECT * FROM markets ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &markets,
			`SELECT * FROM markets WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("market_repo.List: %w", err)
	}
	return markets, nil
}

// GetOpenPastClose returns open markets whose closes_at has passed. The
// scheduler sweeps these into the closed state.
func (r *MarketRepository) GetOpenPastClose(ctx context.Context, now time.Time) ([]*domain.Market, error) {
	var markets []*domain.Market
	err := r.db.SelectContext(ctx, &markets,
		`SELECT * FROM markets WHERE status = 'open' AND closes_at <= $1`, now)
	if err != nil {
		return nil, fmt.Errorf("market_repo.GetOpenPastClose: %w", err)
	}
	return markets, nil
}

// RecordStake bumps the market's traded volume by the full stake.
func (r *MarketRepository) RecordStake(ctx context.Context, tx *sqlx.Tx, marketID uuid.UUID, stake decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE markets SET volume = volume + $1, updated_at = now() WHERE id = $2`,
		stake, marketID)
	if err != nil {
		return fmt.Errorf("market_repo.RecordStake: %w", err)
	}
	return nil
}

// AddToPool adds the post-fee investment to one side's liquidity pool.
// Binary markets only.
func (r *MarketRepository) AddToPool(ctx context.Context, tx *sqlx.Tx, marketID uuid.UUID, yes bool, amount decimal.Decimal) error {
	col := "pool_no"
	if yes {
		col = "pool_yes"
	}
	query := fmt.Sprintf(
		`UPDATE markets SET %s = %s + $1, updated_at = now() WHERE id = $2`, col, col)
	if _, err := tx.ExecContext(ctx, query, amount, marketID); err != nil {
		return fmt.Errorf("market_repo.AddToPool: %w", err)
	}
	return nil
}

// Close moves an open market to closed. Returns ErrMarketNotFound when the
// market does not exist or is not open, so the scheduler and the back-office
// cannot double-close.
func (r *MarketRepository) Close(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE markets SET status = 'closed', is_live = false, updated_at = now()
		 WHERE id = $1 AND status = 'open'`, id)
	if err != nil {
		return fmt.Errorf("market_repo.Close: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrMarketNotFound
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolution state machine
// ──────────────────────────────────────────────────────────────────────────────

// BeginResolution takes the resolution claim on a market inside a transaction:
// it locks the row, verifies the status allows resolving, and flips it to
// 'resolving'. Returns the status the market held before the flip so the
// caller can log early (open) resolutions. The status check makes concurrent
// resolution passes mutually exclusive.
func (r *MarketRepository) BeginResolution(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (domain.MarketStatus, error) {
	var status domain.MarketStatus
	err := tx.GetContext(ctx, &status, `SELECT status FROM markets WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrMarketNotFound
		}
		return "", fmt.Errorf("market_repo.BeginResolution: %w", err)
	}

	switch status {
	case domain.StatusOpen, domain.StatusClosed:
		// eligible
	case domain.StatusResolving:
		return status, domain.ErrResolutionInProgress
	case domain.StatusResolved:
		// Re-invocation on a settled market. Not an error: the caller sweeps
		// any bets a previous interrupted pass left pending.
		return status, nil
	case domain.StatusCancelled:
		return status, domain.ErrMarketCancelled
	default:
		return status, fmt.Errorf("market_repo.BeginResolution: unknown status %q", status)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE markets SET status = 'resolving', is_live = false, updated_at = now() WHERE id = $1`,
		id); err != nil {
		return status, fmt.Errorf("market_repo.BeginResolution: %w", err)
	}
	return status, nil
}

// FinishResolution stamps the final resolved state. winningOutcomeID is nil
// for multi-form resolutions where winners are per-outcome flags.
func (r *MarketRepository) FinishResolution(ctx context.Context, id uuid.UUID, winningOutcomeID *uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE markets
		SET status = 'resolved', winning_outcome_id = $1, resolved_at = now(), updated_at = now()
		WHERE id = $2 AND status = 'resolving'`,
		winningOutcomeID, id)
	if err != nil {
		return fmt.Errorf("market_repo.FinishResolution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("market_repo.FinishResolution: market %s not in resolving state", id)
	}
	return nil
}

// AbortResolution releases a resolution claim after a failed pass, returning
// the market to the status it held before BeginResolution. Only a market still
// in the resolving state is touched; a pass that reached FinishResolution
// keeps its resolved stamp. Without this release a mid-pass failure would pin
// the market in 'resolving' and every retry would bounce off
// ErrResolutionInProgress.
func (r *MarketRepository) AbortResolution(ctx context.Context, id uuid.UUID, prev domain.MarketStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE markets
		SET status = $1, is_live = $2, updated_at = now()
		WHERE id = $3 AND status = 'resolving'`,
		prev, prev == domain.StatusOpen, id)
	if err != nil {
		return fmt.Errorf("market_repo.AbortResolution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("market_repo.AbortResolution: market %s not in resolving state", id)
	}
	return nil
}

// Cancel voids a market that has not been resolved yet. The caller refunds
// pending bets afterwards.
func (r *MarketRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE markets
		SET status = 'cancelled', is_live = false, updated_at = now()
		WHERE id = $1 AND status IN ('open', 'closed')`, id)
	if err != nil {
		return fmt.Errorf("market_repo.Cancel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrMarketNotFound
	}
	return nil
}

// CountByStatus returns market counts keyed by status. Dashboard use.
func (r *MarketRepository) CountByStatus(ctx context.Context) (map[domain.MarketStatus]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM markets GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("market_repo.CountByStatus: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.MarketStatus]int)
	for rows.Next() {
		var status domain.MarketStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("market_repo.CountByStatus: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
