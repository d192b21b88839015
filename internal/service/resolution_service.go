package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/repository"
)

// ResolutionBroadcaster is the minimal interface ResolutionService needs from
// the WS hub.
type ResolutionBroadcaster interface {
	BroadcastMarketResolved(marketID uuid.UUID, winningOutcomeID *uuid.UUID)
}

// ResolutionResult summarises one settlement pass over a market.
type ResolutionResult struct {
	MarketID         uuid.UUID       `json:"market_id"`
	WinningOutcomeID *uuid.UUID      `json:"winning_outcome_id,omitempty"`
	PayoutsCount     int             `json:"payouts_count"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	LostCount        int             `json:"lost_count"`
	FailedCount      int             `json:"failed_count"`
}

// ──────────────────────────────────────────────────────────────────────────────
// ResolutionService
// ──────────────────────────────────────────────────────────────────────────────

// ResolutionService settles markets: it claims the market for resolution,
// stamps the winning outcome(s), walks every pending bet paying winners their
// frozen potential payout, and handles full refunds when a market is
// cancelled.
//
// Each bet settles in its own short transaction with a status guard, so an
// interrupted pass leaves no half-settled bet and a re-run sweeps exactly the
// bets that remain pending.
type ResolutionService struct {
	db          *sqlx.DB
	marketRepo  *repository.MarketRepository
	outcomeRepo *repository.OutcomeRepository
	betRepo     *repository.BetRepository
	profileRepo *repository.ProfileRepository
	logger      *slog.Logger
	broadcaster ResolutionBroadcaster
}

// NewResolutionService builds a ResolutionService.
func NewResolutionService(
	db *sqlx.DB,
	marketRepo *repository.MarketRepository,
	outcomeRepo *repository.OutcomeRepository,
	betRepo *repository.BetRepository,
	profileRepo *repository.ProfileRepository,
	logger *slog.Logger,
) *ResolutionService {
	return &ResolutionService{
		db:          db,
		marketRepo:  marketRepo,
		outcomeRepo: outcomeRepo,
		betRepo:     betRepo,
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *ResolutionService) SetBroadcaster(b ResolutionBroadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// ResolveMarket — single-winner form
// ──────────────────────────────────────────────────────────────────────────────

// ResolveMarket settles a market by declaring one outcome the winner. YES bets
// on the winner and NO bets on any other outcome are paid their frozen
// potential payout; everything else is marked lost.
//
// Calling it again on an already-resolved market is not an error: it sweeps
// whatever bets a previous interrupted pass left pending, typically none.
func (s *ResolutionService) ResolveMarket(ctx context.Context, marketID, winningOutcomeID uuid.UUID) (*ResolutionResult, error) {
	winner, err := s.outcomeRepo.GetByID(ctx, winningOutcomeID)
	if err != nil {
		return nil, err
	}
	if winner.MarketID != marketID {
		return nil, domain.ErrOutcomeNotFound
	}

	prev, err := s.claim(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if prev != domain.StatusResolved {
		if err := s.outcomeRepo.SetBinaryWinner(ctx, marketID, winningOutcomeID); err != nil {
			s.releaseClaim(ctx, marketID, prev)
			return nil, err
		}
	}

	result, err := s.settlePending(ctx, marketID, func(b *domain.Bet) bool {
		return b.WinsAgainst(winningOutcomeID)
	})
	if err != nil {
		s.releaseClaim(ctx, marketID, prev)
		return nil, err
	}
	result.WinningOutcomeID = &winningOutcomeID

	if prev != domain.StatusResolved {
		if err := s.marketRepo.FinishResolution(ctx, marketID, &winningOutcomeID); err != nil {
			s.releaseClaim(ctx, marketID, prev)
			return nil, err
		}
	}

	s.logger.Info("market resolved",
		"market_id", marketID,
		"winning_outcome_id", winningOutcomeID,
		"payouts", result.PayoutsCount,
		"total_paid", result.TotalPaid,
		"failed", result.FailedCount,
	)
	if s.broadcaster != nil {
		go s.broadcaster.BroadcastMarketResolved(marketID, &winningOutcomeID)
	}
	return result, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// ResolveMarketMulti — per-outcome flag form
// ──────────────────────────────────────────────────────────────────────────────

// ResolveMarketMulti settles a market with an explicit winner flag for every
// outcome. The flag map must cover the market's outcome set exactly: a missing
// flag fails with ErrIncompleteResolution and a flag for a foreign outcome
// fails with ErrOutcomeNotFound, both before anything is written.
func (s *ResolutionService) ResolveMarketMulti(ctx context.Context, marketID uuid.UUID, flags map[uuid.UUID]bool) (*ResolutionResult, error) {
	outcomes, err := s.outcomeRepo.GetByMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if len(outcomes) == 0 {
		return nil, domain.ErrMarketNotFound
	}
	if err := domain.ValidateWinnerFlags(outcomes, flags); err != nil {
		return nil, err
	}

	prev, err := s.claim(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if prev != domain.StatusResolved {
		if err := s.outcomeRepo.SetWinnerFlags(ctx, marketID, flags); err != nil {
			s.releaseClaim(ctx, marketID, prev)
			return nil, err
		}
	}

	result, err := s.settlePending(ctx, marketID, func(b *domain.Bet) bool {
		return b.WinsWithFlags(flags)
	})
	if err != nil {
		s.releaseClaim(ctx, marketID, prev)
		return nil, err
	}

	if prev != domain.StatusResolved {
		if err := s.marketRepo.FinishResolution(ctx, marketID, nil); err != nil {
			s.releaseClaim(ctx, marketID, prev)
			return nil, err
		}
	}

	s.logger.Info("market resolved (multi)",
		"market_id", marketID,
		"payouts", result.PayoutsCount,
		"total_paid", result.TotalPaid,
		"failed", result.FailedCount,
	)
	if s.broadcaster != nil {
		go s.broadcaster.BroadcastMarketResolved(marketID, nil)
	}
	return result, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// RefundPendingBets — market cancellation path
// ──────────────────────────────────────────────────────────────────────────────

// RefundPendingBets returns the full original stake, fee included, of every
// pending bet on a cancelled market. Each refund runs in its own transaction
// with the same pending-status guard as settlement, so no bet is refunded
// twice.
func (s *ResolutionService) RefundPendingBets(ctx context.Context, marketID uuid.UUID) (int, error) {
	bets, err := s.betRepo.GetPendingByMarket(ctx, marketID)
	if err != nil {
		return 0, err
	}

	refunded := 0
	for _, bet := range bets {
		if err := s.refundOne(ctx, bet); err != nil {
			if !errors.Is(err, errAlreadySettled) {
				s.logger.Error("refund failed", "bet_id", bet.ID, "market_id", marketID, "error", err)
			}
			continue
		}
		refunded++
	}
	return refunded, nil
}

func (s *ResolutionService) refundOne(ctx context.Context, bet *domain.Bet) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("refund bet %s: begin tx: %w", bet.ID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	settled, err := s.betRepo.Settle(ctx, tx, bet.ID, domain.BetStatusCancelled)
	if err != nil {
		return err
	}
	if !settled {
		// Another pass got here first.
		err = errAlreadySettled
		return err
	}

	profile, err := s.profileRepo.GetForUpdate(ctx, tx, bet.UserID)
	if err != nil {
		return err
	}
	if err = s.profileRepo.Credit(ctx, tx, bet.UserID, bet.Amount); err != nil {
		return err
	}
	if err = s.logMovement(ctx, tx, profile, bet, domain.TxRefund, bet.Amount, "Market cancelled, stake refunded"); err != nil {
		return err
	}
	return tx.Commit()
}

// ──────────────────────────────────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────────────────────────────────

// claim flips the market into the resolving state and returns the status it
// held before. Resolving an open market is allowed but logged as an explicit
// override, since it pre-empts the betting window.
func (s *ResolutionService) claim(ctx context.Context, marketID uuid.UUID) (prev domain.MarketStatus, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("resolution_service.claim: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prev, err = s.marketRepo.BeginResolution(ctx, tx, marketID)
	if err != nil {
		return prev, err
	}
	if err = tx.Commit(); err != nil {
		return prev, fmt.Errorf("resolution_service.claim: commit: %w", err)
	}

	switch prev {
	case domain.StatusOpen:
		s.logger.Warn("resolving market that was still open", "market_id", marketID)
	case domain.StatusResolved:
		s.logger.Info("re-running resolution on settled market", "market_id", marketID)
	}
	return prev, nil
}

// releaseClaim hands a failed pass's claim back so a retry can run: the
// market returns to the status it held before the claim. An already-resolved
// market never re-entered the resolving state, so it has nothing to release.
func (s *ResolutionService) releaseClaim(ctx context.Context, marketID uuid.UUID, prev domain.MarketStatus) {
	if prev == domain.StatusResolved {
		return
	}
	if err := s.marketRepo.AbortResolution(ctx, marketID, prev); err != nil {
		s.logger.Error("could not release resolution claim", "market_id", marketID, "error", err)
	}
}

// settlePending walks every pending bet on the market, each in its own
// transaction. A failing bet is logged and counted; the loop continues so one
// broken row cannot block everyone else's payout.
func (s *ResolutionService) settlePending(ctx context.Context, marketID uuid.UUID, wins func(*domain.Bet) bool) (*ResolutionResult, error) {
	bets, err := s.betRepo.GetPendingByMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	result := &ResolutionResult{MarketID: marketID, TotalPaid: decimal.Zero}
	for _, bet := range bets {
		won := wins(bet)
		if err := s.settleOne(ctx, bet, won); err != nil {
			if errors.Is(err, errAlreadySettled) {
				continue
			}
			s.logger.Error("bet settlement failed", "bet_id", bet.ID, "market_id", marketID, "error", err)
			result.FailedCount++
			continue
		}
		if won {
			result.PayoutsCount++
			result.TotalPaid = result.TotalPaid.Add(bet.PotentialPayout)
		} else {
			result.LostCount++
		}
	}
	return result, nil
}

// errAlreadySettled signals that a concurrent pass settled the bet first.
var errAlreadySettled = errors.New("bet already settled")

func (s *ResolutionService) settleOne(ctx context.Context, bet *domain.Bet, won bool) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settle bet %s: begin tx: %w", bet.ID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	status := domain.BetStatusLost
	if won {
		status = domain.BetStatusWon
	}
	settled, err := s.betRepo.Settle(ctx, tx, bet.ID, status)
	if err != nil {
		return err
	}
	if !settled {
		err = errAlreadySettled
		return err
	}

	if won {
		profile, perr := s.profileRepo.GetForUpdate(ctx, tx, bet.UserID)
		if perr != nil {
			err = perr
			return err
		}
		if err = s.profileRepo.CreditWinnings(ctx, tx, bet.UserID, bet.PotentialPayout); err != nil {
			return err
		}
		if err = s.logMovement(ctx, tx, profile, bet, domain.TxPayout, bet.PotentialPayout, "Winning bet payout"); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// logMovement writes a ledger entry for a settlement-side balance change.
func (s *ResolutionService) logMovement(ctx context.Context, tx *sqlx.Tx, profile *domain.Profile, bet *domain.Bet, typ domain.TxType, amount decimal.Decimal, desc string) error {
	txn := &domain.ZenyTransaction{
		ID:            uuid.New(),
		UserID:        bet.UserID,
		Type:          typ,
		Amount:        amount,
		BalanceBefore: profile.Balance,
		BalanceAfter:  profile.Balance.Add(amount),
		RefID:         &bet.ID,
		Description:   desc,
		CreatedAt:     nowUTC(),
	}
	return s.profileRepo.LogTransaction(ctx, tx, txn)
}
