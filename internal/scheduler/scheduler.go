// Package scheduler manages the two background goroutines that run the
// market lifecycle:
//  1. closeExpiredLoop    – sweeps open markets past their closing time.
//  2. summaryBroadcastLoop – pushes open-market pool summaries to WS clients.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/service"
)

// ──────────────────────────────────────────────────────────────────────────────
// WsHub interface — minimally required from the Hub
// ──────────────────────────────────────────────────────────────────────────────

// WsHub defines the broadcast operations the Scheduler needs from the
// WebSocket hub. Declared here so the scheduler package does not import the
// ws package implementation and cause a circular dependency.
type WsHub interface {
	BroadcastMarketUpdate(summary domain.MarketSummary)
	BroadcastMarketClosed(marketID uuid.UUID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Scheduler
// ──────────────────────────────────────────────────────────────────────────────

// Scheduler runs the market lifecycle goroutines. Call Start(ctx) once from
// main(); cancel the context to shut it down gracefully.
type Scheduler struct {
	marketSvc *service.MarketService
	hub       WsHub
	logger    *slog.Logger

	closeSweepInterval time.Duration
	broadcastInterval  time.Duration
}

// NewScheduler creates a Scheduler with the default intervals: a close sweep
// every 5 seconds and a summary broadcast every 2 seconds.
func NewScheduler(marketSvc *service.MarketService, hub WsHub, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		marketSvc:          marketSvc,
		hub:                hub,
		logger:             logger,
		closeSweepInterval: 5 * time.Second,
		broadcastInterval:  2 * time.Second,
	}
}

// Start launches the background goroutines. It returns immediately; all
// loops run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.closeExpiredLoop(ctx)
	go s.summaryBroadcastLoop(ctx)
	s.logger.Info("scheduler started")
}

// ──────────────────────────────────────────────────────────────────────────────
// closeExpiredLoop
// ──────────────────────────────────────────────────────────────────────────────

// closeExpiredLoop sweeps open markets whose closing time has passed. Closed
// markets stay pending until an admin resolves them.
func (s *Scheduler) closeExpiredLoop(ctx context.Context) {
	defer s.recoverAndLog("closeExpiredLoop")

	ticker := time.NewTicker(s.closeSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("closeExpiredLoop: shutting down")
			return
		case <-ticker.C:
			closed, err := s.marketSvc.CloseExpired(ctx)
			if err != nil {
				s.logger.Error("closeExpiredLoop: sweep failed", "err", err)
				continue
			}
			for _, m := range closed {
				s.logger.Info("market betting window closed", "market_id", m.ID)
				if s.hub != nil {
					s.hub.BroadcastMarketClosed(m.ID)
				}
			}
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// summaryBroadcastLoop
// ──────────────────────────────────────────────────────────────────────────────

// summaryBroadcastLoop periodically pushes the pool state and probabilities
// of every open market to connected clients, so late joiners see current
// pricing without waiting for the next bet.
func (s *Scheduler) summaryBroadcastLoop(ctx context.Context) {
	defer s.recoverAndLog("summaryBroadcastLoop")

	ticker := time.NewTicker(s.broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("summaryBroadcastLoop: shutting down")
			return
		case <-ticker.C:
			s.broadcastSummaries(ctx)
		}
	}
}

// broadcastSummaries is the inner body of summaryBroadcastLoop, extracted so
// the defer/recover in the loop catches panics correctly.
func (s *Scheduler) broadcastSummaries(ctx context.Context) {
	if s.hub == nil {
		return
	}

	markets, err := s.marketSvc.ListOpenMarkets(ctx)
	if err != nil {
		s.logger.Warn("summaryBroadcastLoop: list failed", "err", err)
		return
	}
	if len(markets) == 0 {
		return
	}

	summaries, err := s.marketSvc.Summaries(ctx, markets)
	if err != nil {
		s.logger.Warn("summaryBroadcastLoop: summaries failed", "err", err)
		return
	}
	for _, summary := range summaries {
		s.hub.BroadcastMarketUpdate(summary)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Panic guard
// ──────────────────────────────────────────────────────────────────────────────

// recoverAndLog keeps a panicking loop from taking the process down.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("scheduler loop panicked", "loop", loop, "panic", r)
	}
}
