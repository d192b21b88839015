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

// OutcomeRepository handles all database operations for market outcomes.
type OutcomeRepository struct {
	db *sqlx.DB
}

// NewOutcomeRepository creates a new OutcomeRepository.
func NewOutcomeRepository(db *sqlx.DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// CreateBatch inserts a market's outcomes inside an existing transaction.
func (r *OutcomeRepository) CreateBatch(ctx context.Context, tx *sqlx.Tx, outcomes []*domain.Outcome) error {
	query := `
		INSERT INTO outcomes
			(id, market_id, name, probability, is_winner, created_at)
		VALUES
			(:id, :market_id, :name, :probability, :is_winner, :created_at)`
	for _, o := range outcomes {
		if _, err := tx.NamedExecContext(ctx, query, o); err != nil {
			return fmt.Errorf("outcome_repo.CreateBatch: %w", err)
		}
	}
	return nil
}

// GetByID fetches a single outcome.
func (r *OutcomeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Outcome, error) {
	var o domain.Outcome
	err := r.db.GetContext(ctx, &o, `SELECT * FROM outcomes WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOutcomeNotFound
		}
		return nil, fmt.Errorf("outcome_repo.GetByID: %w", err)
	}
	return &o, nil
}

// GetByMarket returns all outcomes of a market in creation order.
func (r *OutcomeRepository) GetByMarket(ctx context.Context, marketID uuid.UUID) ([]*domain.Outcome, error) {
	var outcomes []*domain.Outcome
	err := r.db.SelectContext(ctx, &outcomes,
		`SELECT * FROM outcomes WHERE market_id = $1 ORDER BY created_at ASC`, marketID)
	if err != nil {
		return nil, fmt.Errorf("outcome_repo.GetByMarket: %w", err)
	}
	return outcomes, nil
}

// GetByMarketTx reads a market's outcomes through the placement transaction,
// after the market row lock, so the set is stable for the selection lookup.
func (r *OutcomeRepository) GetByMarketTx(ctx context.Context, tx *sqlx.Tx, marketID uuid.UUID) ([]*domain.Outcome, error) {
	var outcomes []*domain.Outcome
	err := tx.SelectContext(ctx, &outcomes,
		`SELECT * FROM outcomes WHERE market_id = $1 ORDER BY created_at ASC`, marketID)
	if err != nil {
		return nil, fmt.Errorf("outcome_repo.GetByMarketTx: %w", err)
	}
	return outcomes, nil
}

// UpdateProbability writes a new displayed probability for one outcome.
func (r *OutcomeRepository) UpdateProbability(ctx context.Context, tx *sqlx.Tx, outcomeID uuid.UUID, probability decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE outcomes SET probability = $1 WHERE id = $2`, probability, outcomeID)
	if err != nil {
		return fmt.Errorf("outcome_repo.UpdateProbability: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrOutcomeNotFound
	}
	return nil
}

// SetBinaryWinner stamps is_winner on both outcomes of a binary market in one
// statement: true on the winner, false on the other side.
func (r *OutcomeRepository) SetBinaryWinner(ctx context.Context, marketID, winningOutcomeID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outcomes SET is_winner = (id = $1) WHERE market_id = $2`,
		winningOutcomeID, marketID)
	if err != nil {
		return fmt.Errorf("outcome_repo.SetBinaryWinner: %w", err)
	}
	return nil
}

// SetWinnerFlags stamps per-outcome winner flags for a multi-form resolution.
// Every update is scoped to the market, so a flag keyed by an outcome of some
// other market can never write outside it.
func (r *OutcomeRepository) SetWinnerFlags(ctx context.Context, marketID uuid.UUID, flags map[uuid.UUID]bool) error {
	for id, won := range flags {
		res, err := r.db.ExecContext(ctx,
			`UPDATE outcomes SET is_winner = $1 WHERE id = $2 AND market_id = $3`,
			won, id, marketID)
		if err != nil {
			return fmt.Errorf("outcome_repo.SetWinnerFlags: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrOutcomeNotFound
		}
	}
	return nil
}
