package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/config"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/repository"
)

// Broadcaster is the minimal interface BetService needs from the WS hub.
// Implemented by ws.Hub.
type Broadcaster interface {
	BroadcastMarketUpdate(summary domain.MarketSummary)
	BroadcastBetPlaced(marketID uuid.UUID, direction domain.BetDirection, amount decimal.Decimal)
}

// ──────────────────────────────────────────────────────────────────────────────
// BetService
// ──────────────────────────────────────────────────────────────────────────────

// BetService orchestrates bet placement. All money movement for a placement
// happens inside a single PostgreSQL transaction: the stake debit, stat and
// XP bumps, pool and volume updates, repricing, the bet insert, and the
// ledger entry commit or roll back together.
type BetService struct {
	db          *sqlx.DB
	betRepo     *repository.BetRepository
	marketRepo  *repository.MarketRepository
	outcomeRepo *repository.OutcomeRepository
	profileRepo *repository.ProfileRepository
	cfg         *config.Config
	logger      *slog.Logger
	broadcaster Broadcaster // injected after WS Hub is built
}

// NewBetService creates a BetService.
func NewBetService(
	db *sqlx.DB,
	betRepo *repository.BetRepository,
	marketRepo *repository.MarketRepository,
	outcomeRepo *repository.OutcomeRepository,
	profileRepo *repository.ProfileRepository,
	cfg *config.Config,
	logger *slog.Logger,
) *BetService {
	return &BetService{
		db:          db,
		betRepo:     betRepo,
		marketRepo:  marketRepo,
		outcomeRepo: outcomeRepo,
		profileRepo: profileRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *BetService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// PlaceBet
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBet validates the request, atomically deducts the user's balance,
// splits the stake into fee and investment, freezes odds and potential payout
// from the pre-bet probability, grows the chosen pool by the investment,
// reprices the market, records the bet, and writes a ledger entry.
//
// After a successful commit it asynchronously broadcasts the new pricing to
// connected clients. Broadcast failures never affect the placement.
func (s *BetService) PlaceBet(ctx context.Context, req domain.PlaceBetRequest) (*domain.PlaceBetResult, error) {
	// ── 1. Input validation ──────────────────────────────────────────────────
	minStake := decimal.NewFromFloat(s.cfg.Betting.MinStake)
	maxStake := decimal.NewFromFloat(s.cfg.Betting.MaxStake)
	if err := domain.ValidateStake(req.Amount, minStake, maxStake); err != nil {
		return nil, err
	}
	if !req.Selection.Direction.IsValid() {
		return nil, domain.ErrInvalidSelection
	}

	// ── 2. Begin transaction ─────────────────────────────────────────────────
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("bet_service.PlaceBet: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// ── 3. Lock profile, check funds ─────────────────────────────────────────
	// Profile first, then market: every placement takes row locks in this
	// order, so two placements cannot deadlock against each other.
	profile, err := s.profileRepo.GetForUpdate(ctx, tx, req.UserID)
	if err != nil {
		return nil, err
	}
	if profile.Balance.LessThan(req.Amount) {
		err = domain.ErrInsufficientBalance
		return nil, err
	}

	// ── 4. Lock market, verify it accepts bets ───────────────────────────────
	market, err := s.marketRepo.GetForUpdate(ctx, tx, req.MarketID)
	if err != nil {
		return nil, err
	}
	if !market.AcceptsBets() {
		if market.Status == domain.StatusCancelled {
			err = domain.ErrMarketCancelled
		} else {
			err = domain.ErrMarketClosed
		}
		return nil, err
	}

	// ── 5. Resolve the selection against the market's outcomes ───────────────
	outcomes, err := s.outcomeRepo.GetByMarketTx(ctx, tx, market.ID)
	if err != nil {
		return nil, err
	}
	outcome, err := req.Selection.Resolve(outcomes)
	if err != nil {
		return nil, err
	}

	// One bet per user per market. The unique constraint on the bets table is
	// the canonical guard; this pre-check just returns the clean error before
	// any money moves.
	already, err := s.betRepo.ExistsForUserMarket(ctx, tx, req.UserID, market.ID)
	if err != nil {
		return nil, err
	}
	if already {
		err = domain.ErrAlreadyBet
		return nil, err
	}

	// ── 6. Pricing: capture pre-bet probability, freeze odds and payout ──────
	var probability decimal.Decimal
	if market.IsBinary() {
		probability = domain.ClampProbability(market.PoolProbability(outcome.Name == domain.BinaryYesName))
	} else {
		probability = domain.ClampProbability(outcome.Probability)
	}

	fee, investment := domain.SplitStake(req.Amount)
	odds := domain.OddsFor(probability, req.Selection.Direction)
	payout := domain.PotentialPayout(investment, odds)

	// ── 7. Debit stake, bump stats/XP/level ──────────────────────────────────
	newXP := profile.XP + domain.XPPerBet
	newLevel := domain.LevelForXP(newXP)
	if err = s.profileRepo.ApplyBetDebit(ctx, tx, req.UserID, req.Amount, newXP, newLevel); err != nil {
		return nil, err
	}

	// ── 8. Market aggregates: volume takes the stake, pool the investment ────
	if err = s.marketRepo.RecordStake(ctx, tx, market.ID, req.Amount); err != nil {
		return nil, err
	}
	if market.IsBinary() {
		yesSide := outcome.Name == domain.BinaryYesName
		if req.Selection.Direction == domain.DirectionNo {
			// Betting NO on an outcome funds the opposite pool.
			yesSide = !yesSide
		}
		if err = s.marketRepo.AddToPool(ctx, tx, market.ID, yesSide, investment); err != nil {
			return nil, err
		}

		// Reprice both sides from the updated pools.
		if yesSide {
			market.PoolYes = market.PoolYes.Add(investment)
		} else {
			market.PoolNo = market.PoolNo.Add(investment)
		}
		for _, o := range outcomes {
			p := market.PoolProbability(o.Name == domain.BinaryYesName)
			o.Probability = p
			if err = s.outcomeRepo.UpdateProbability(ctx, tx, o.ID, p); err != nil {
				return nil, err
			}
		}
	}
	market.Volume = market.Volume.Add(req.Amount)

	// ── 9. Insert bet and ledger entry ───────────────────────────────────────
	now := time.Now().UTC()
	bet := &domain.Bet{
		ID:              uuid.New(),
		UserID:          req.UserID,
		MarketID:        market.ID,
		OutcomeID:       outcome.ID,
		Amount:          req.Amount,
		Direction:       req.Selection.Direction,
		OddsAtBet:       odds,
		PotentialPayout: payout,
		Status:          domain.BetStatusPending,
		PlacedAt:        now,
	}
	if err = s.betRepo.Create(ctx, tx, bet); err != nil {
		return nil, err
	}

	newBalance := profile.Balance.Sub(req.Amount)
	txn := &domain.ZenyTransaction{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Type:          domain.TxBetDebit,
		Amount:        req.Amount.Neg(),
		BalanceBefore: profile.Balance,
		BalanceAfter:  newBalance,
		RefID:         &bet.ID,
		Description:   fmt.Sprintf("Bet %s on %q (fee %s)", bet.Direction, outcome.Name, fee),
		CreatedAt:     now,
	}
	if err = s.profileRepo.LogTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}

	// ── 10. Commit ───────────────────────────────────────────────────────────
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("bet_service.PlaceBet: commit: %w", err)
	}

	s.logger.Info("bet placed",
		"bet_id", bet.ID,
		"user_id", req.UserID,
		"market_id", market.ID,
		"outcome", outcome.Name,
		"direction", bet.Direction,
		"amount", req.Amount,
		"odds", odds,
	)

	// ── 11. Async broadcast (post-commit, best effort) ───────────────────────
	if s.broadcaster != nil {
		summary := market.ToSummary(outcomes)
		go func() {
			s.broadcaster.BroadcastMarketUpdate(summary)
			s.broadcaster.BroadcastBetPlaced(market.ID, bet.Direction, bet.Amount)
		}()
	}

	return &domain.PlaceBetResult{Bet: bet, NewBalance: newBalance}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────────────────────────

// GetUserBets returns a user's bet history, newest first.
func (s *BetService) GetUserBets(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Bet, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.betRepo.GetByUser(ctx, userID, limit, offset)
}

// GetBet returns a single bet, restricted to its owner.
func (s *BetService) GetBet(ctx context.Context, userID, betID uuid.UUID) (*domain.Bet, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet.UserID != userID {
		return nil, domain.ErrBetNotFound
	}
	return bet, nil
}
