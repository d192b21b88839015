package domain_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/domain"
)

// ── Pool probability math ─────────────────────────────────────────────────────

func TestMarket_PoolProbability(t *testing.T) {
	m := &domain.Market{
		PoolYes: decimal.NewFromInt(1000),
		PoolNo:  decimal.NewFromInt(500),
	}
	yes := m.PoolProbability(true)
	no := m.PoolProbability(false)

	if !yes.Add(no).Round(4).Equal(decimal.NewFromInt(100)) {
		t.Errorf("probabilities should sum to 100, got %s + %s = %s", yes, no, yes.Add(no))
	}
	// YES should be ~66.67%
	wantYes := decimal.NewFromFloat(66.67)
	if yes.Sub(wantYes).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		t.Errorf("PoolProbability(yes) = %s, want ~%s", yes, wantYes)
	}
}

func TestMarket_PoolProbability_EmptyPools(t *testing.T) {
	m := &domain.Market{
		PoolYes: decimal.Zero,
		PoolNo:  decimal.Zero,
	}
	// Fresh market prices even; no divide-by-zero.
	if !m.PoolProbability(true).Equal(decimal.NewFromInt(50)) {
		t.Errorf("empty market PoolProbability(yes) = %s, want 50", m.PoolProbability(true))
	}
	if !m.PoolProbability(false).Equal(decimal.NewFromInt(50)) {
		t.Errorf("empty market PoolProbability(no) = %s, want 50", m.PoolProbability(false))
	}
}

// ── State predicates ──────────────────────────────────────────────────────────

func TestMarket_AcceptsBets(t *testing.T) {
	m := &domain.Market{Status: domain.StatusOpen, IsLive: true}
	if !m.AcceptsBets() {
		t.Error("open + live market should accept bets")
	}

	m.IsLive = false
	if m.AcceptsBets() {
		t.Error("non-live market should not accept bets")
	}

	m.IsLive = true
	for _, s := range []domain.MarketStatus{
		domain.StatusClosed, domain.StatusResolving, domain.StatusResolved, domain.StatusCancelled,
	} {
		m.Status = s
		if m.AcceptsBets() {
			t.Errorf("market with status %q should not accept bets", s)
		}
	}
}

// ── Winner-flag validation ────────────────────────────────────────────────────

func TestValidateWinnerFlags(t *testing.T) {
	a := &domain.Outcome{ID: uuid.New(), Name: "A"}
	b := &domain.Outcome{ID: uuid.New(), Name: "B"}
	c := &domain.Outcome{ID: uuid.New(), Name: "C"}
	outcomes := []*domain.Outcome{a, b, c}

	// Exact cover passes.
	full := map[uuid.UUID]bool{a.ID: true, b.ID: false, c.ID: false}
	if err := domain.ValidateWinnerFlags(outcomes, full); err != nil {
		t.Errorf("exact flag cover rejected: %v", err)
	}

	// A missing outcome is an incomplete payload.
	missing := map[uuid.UUID]bool{a.ID: true, b.ID: false}
	if err := domain.ValidateWinnerFlags(outcomes, missing); !errors.Is(err, domain.ErrIncompleteResolution) {
		t.Errorf("missing flag: err = %v, want ErrIncompleteResolution", err)
	}

	// A flag keyed by an outcome the market does not own must be rejected,
	// even when every real outcome is covered; otherwise it could stamp a
	// winner flag on another market's outcome.
	stray := map[uuid.UUID]bool{a.ID: true, b.ID: false, c.ID: false, uuid.New(): true}
	if err := domain.ValidateWinnerFlags(outcomes, stray); !errors.Is(err, domain.ErrOutcomeNotFound) {
		t.Errorf("stray flag: err = %v, want ErrOutcomeNotFound", err)
	}
}

func TestDirection_IsValid(t *testing.T) {
	if !domain.DirectionYes.IsValid() || !domain.DirectionNo.IsValid() {
		t.Error("YES and NO should be valid directions")
	}
	if domain.BetDirection("MAYBE").IsValid() {
		t.Error("MAYBE should not be a valid direction")
	}
}
