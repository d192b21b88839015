package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/repository"
)

// Refunder is the minimal interface MarketService needs from
// ResolutionService. Declared here to keep construction order flexible.
type Refunder interface {
	RefundPendingBets(ctx context.Context, marketID uuid.UUID) (int, error)
}

// ──────────────────────────────────────────────────────────────────────────────
// Request types
// ──────────────────────────────────────────────────────────────────────────────

// CreateMarketRequest carries the admin inputs for opening a market.
// For binary markets Outcomes is ignored: the OUI/NON pair is created
// automatically. For multi markets every outcome needs a name and a starting
// probability; the probabilities should sum to roughly 100.
type CreateMarketRequest struct {
	Question string               `json:"question" binding:"required,min=10,max=500"`
	Type     domain.MarketType    `json:"type"     binding:"required,oneof=binary multi"`
	ClosesAt time.Time            `json:"closes_at" binding:"required"`
	Seed     decimal.Decimal      `json:"seed"`     // initial liquidity per pool, binary only
	Outcomes []CreateOutcomeInput `json:"outcomes"` // multi only
}

// CreateOutcomeInput is one outcome definition for a multi market.
type CreateOutcomeInput struct {
	Name        string          `json:"name"        binding:"required,min=1,max=100"`
	Probability decimal.Decimal `json:"probability" binding:"required"`
}

// MarketDetail bundles a market with its outcomes for API responses.
type MarketDetail struct {
	Market   *domain.Market    `json:"market"`
	Outcomes []*domain.Outcome `json:"outcomes"`
}

// ──────────────────────────────────────────────────────────────────────────────
// MarketService
// ──────────────────────────────────────────────────────────────────────────────

// MarketService handles market lifecycle: creation, querying, closing and
// cancellation.
type MarketService struct {
	db          *sqlx.DB
	marketRepo  *repository.MarketRepository
	outcomeRepo *repository.OutcomeRepository
	logger      *slog.Logger
	refunder    Refunder // injected after ResolutionService is built

	// short open-markets cache to absorb list traffic between WS ticks
	listMu        sync.RWMutex
	openMarkets   []*domain.Market
	listCacheTime time.Time
}

// NewMarketService creates a MarketService. Call SetRefunder() after
// constructing ResolutionService to inject the dependency.
func NewMarketService(
	db *sqlx.DB,
	marketRepo *repository.MarketRepository,
	outcomeRepo *repository.OutcomeRepository,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		db:          db,
		marketRepo:  marketRepo,
		outcomeRepo: outcomeRepo,
		logger:      logger,
	}
}

// SetRefunder injects the ResolutionService after both services are
// constructed.
func (s *MarketService) SetRefunder(r Refunder) {
	s.refunder = r
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateMarket
// ──────────────────────────────────────────────────────────────────────────────

// CreateMarket opens a new market and its outcomes in one transaction.
// Binary markets get the canonical OUI/NON pair priced 50/50, with both pools
// seeded equally so early bets do not slam the probability to the clamp rail.
func (s *MarketService) CreateMarket(ctx context.Context, req CreateMarketRequest) (*MarketDetail, error) {
	now := nowUTC()
	if !req.ClosesAt.After(now) {
		return nil, fmt.Errorf("market_service.CreateMarket: closes_at must be in the future")
	}

	m := &domain.Market{
		ID:        uuid.New(),
		Question:  strings.TrimSpace(req.Question),
		Type:      req.Type,
		Status:    domain.StatusOpen,
		IsLive:    true,
		Volume:    decimal.Zero,
		PoolYes:   decimal.Zero,
		PoolNo:    decimal.Zero,
		ClosesAt:  req.ClosesAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var outcomes []*domain.Outcome
	switch req.Type {
	case domain.MarketBinary:
		seed := req.Seed
		if seed.IsNegative() {
			return nil, fmt.Errorf("market_service.CreateMarket: seed must not be negative")
		}
		m.PoolYes = seed
		m.PoolNo = seed
		half := decimal.NewFromInt(50)
		outcomes = []*domain.Outcome{
			{ID: uuid.New(), MarketID: m.ID, Name: domain.BinaryYesName, Probability: half, CreatedAt: now},
			{ID: uuid.New(), MarketID: m.ID, Name: domain.BinaryNoName, Probability: half, CreatedAt: now.Add(time.Millisecond)},
		}
	case domain.MarketMulti:
		if len(req.Outcomes) < 2 {
			return nil, fmt.Errorf("market_service.CreateMarket: multi market needs at least 2 outcomes")
		}
		seen := make(map[string]bool, len(req.Outcomes))
		for i, in := range req.Outcomes {
			name := strings.TrimSpace(in.Name)
			if name == "" || seen[name] {
				return nil, fmt.Errorf("market_service.CreateMarket: outcome names must be unique and non-empty")
			}
			seen[name] = true
			outcomes = append(outcomes, &domain.Outcome{
				ID:          uuid.New(),
				MarketID:    m.ID,
				Name:        name,
				Probability: in.Probability,
				CreatedAt:   now.Add(time.Duration(i) * time.Millisecond),
			})
		}
	default:
		return nil, fmt.Errorf("market_service.CreateMarket: unknown market type %q", req.Type)
	}

	tx, txErr := s.db.BeginTxx(ctx, nil)
	if txErr != nil {
		return nil, fmt.Errorf("market_service.CreateMarket: begin tx: %w", txErr)
	}
	defer func() {
		if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	if txErr = s.marketRepo.Create(ctx, tx, m); txErr != nil {
		return nil, txErr
	}
	if txErr = s.outcomeRepo.CreateBatch(ctx, tx, outcomes); txErr != nil {
		return nil, txErr
	}
	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("market_service.CreateMarket: commit: %w", txErr)
	}

	s.invalidateListCache()
	s.logger.Info("market created", "market_id", m.ID, "type", m.Type, "closes_at", m.ClosesAt)
	return &MarketDetail{Market: m, Outcomes: outcomes}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────────────────────────

// GetMarket returns a market with its outcomes.
func (s *MarketService) GetMarket(ctx context.Context, id uuid.UUID) (*MarketDetail, error) {
	m, err := s.marketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.outcomeRepo.GetByMarket(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MarketDetail{Market: m, Outcomes: outcomes}, nil
}

// ListMarkets returns markets filtered by status, newest first.
func (s *MarketService) ListMarkets(ctx context.Context, status domain.MarketStatus, limit, offset int) ([]*domain.Market, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.marketRepo.List(ctx, status, limit, offset)
}

// ListOpenMarkets returns the open markets, cached briefly to absorb polling
// and broadcast traffic.
func (s *MarketService) ListOpenMarkets(ctx context.Context) ([]*domain.Market, error) {
	const cacheDuration = 500 * time.Millisecond

	s.listMu.RLock()
	if s.openMarkets != nil && time.Since(s.listCacheTime) < cacheDuration {
		cached := s.openMarkets
		s.listMu.RUnlock()
		return cached, nil
	}
	s.listMu.RUnlock()

	markets, err := s.marketRepo.List(ctx, domain.StatusOpen, 100, 0)
	if err != nil {
		return nil, err
	}

	s.listMu.Lock()
	s.openMarkets = markets
	s.listCacheTime = time.Now()
	s.listMu.Unlock()
	return markets, nil
}

// Summaries builds broadcast-ready summaries for the given markets.
func (s *MarketService) Summaries(ctx context.Context, markets []*domain.Market) ([]domain.MarketSummary, error) {
	summaries := make([]domain.MarketSummary, 0, len(markets))
	for _, m := range markets {
		outcomes, err := s.outcomeRepo.GetByMarket(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, m.ToSummary(outcomes))
	}
	return summaries, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Lifecycle transitions
// ──────────────────────────────────────────────────────────────────────────────

// CloseMarket ends the betting window. Bets already placed stay pending until
// resolution.
func (s *MarketService) CloseMarket(ctx context.Context, id uuid.UUID) error {
	if err := s.marketRepo.Close(ctx, id); err != nil {
		return err
	}
	s.invalidateListCache()
	s.logger.Info("market closed", "market_id", id)
	return nil
}

// CancelMarket voids a market and refunds every pending bet its full stake.
func (s *MarketService) CancelMarket(ctx context.Context, id uuid.UUID) (int, error) {
	if err := s.marketRepo.Cancel(ctx, id); err != nil {
		return 0, err
	}
	s.invalidateListCache()

	refunded, err := s.refunder.RefundPendingBets(ctx, id)
	if err != nil {
		return refunded, fmt.Errorf("market_service.CancelMarket: refunds: %w", err)
	}
	s.logger.Info("market cancelled", "market_id", id, "refunded", refunded)
	return refunded, nil
}

// CloseExpired sweeps open markets whose closing time has passed. Called by
// the scheduler; returns the markets it closed so the caller can broadcast.
func (s *MarketService) CloseExpired(ctx context.Context) ([]*domain.Market, error) {
	expired, err := s.marketRepo.GetOpenPastClose(ctx, nowUTC())
	if err != nil {
		return nil, err
	}

	var closed []*domain.Market
	for _, m := range expired {
		if err := s.marketRepo.Close(ctx, m.ID); err != nil {
			// Lost the race with an admin close; not a failure.
			s.logger.Warn("expired market already transitioned", "market_id", m.ID, "error", err)
			continue
		}
		closed = append(closed, m)
	}
	if len(closed) > 0 {
		s.invalidateListCache()
	}
	return closed, nil
}

func (s *MarketService) invalidateListCache() {
	s.listMu.Lock()
	s.openMarkets = nil
	s.listMu.Unlock()
}
