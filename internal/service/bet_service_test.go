package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/config"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/service"
)

// TestPlaceBet_StakeBounds drives PlaceBet with stakes outside the configured
// window. The bounds check runs before the transaction begins, so a nil DB is
// enough: an out-of-range stake must come back as ErrStakeOutOfRange without
// any storage being touched.
func TestPlaceBet_StakeBounds(t *testing.T) {
	cfg := &config.Config{
		Betting: config.BettingConfig{MinStake: 10, MaxStake: 100000, SignupBonus: 1000},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewBetService(nil, nil, nil, nil, nil, cfg, logger)

	for _, stake := range []int64{9, 100001, 0} {
		req := domain.PlaceBetRequest{
			UserID:    uuid.New(),
			MarketID:  uuid.New(),
			Selection: domain.Selection{Direction: domain.DirectionYes, OutcomeName: domain.BinaryYesName},
			Amount:    decimal.NewFromInt(stake),
		}
		if _, err := svc.PlaceBet(context.Background(), req); err != domain.ErrStakeOutOfRange {
			t.Errorf("PlaceBet(stake=%d) err = %v, want ErrStakeOutOfRange", stake, err)
		}
	}
}

// TestPlaceBet_InvalidDirection covers the other pre-transaction check: a
// direction outside {YES, NO} is rejected before any storage access.
func TestPlaceBet_InvalidDirection(t *testing.T) {
	cfg := &config.Config{
		Betting: config.BettingConfig{MinStake: 10, MaxStake: 100000, SignupBonus: 1000},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewBetService(nil, nil, nil, nil, nil, cfg, logger)

	req := domain.PlaceBetRequest{
		UserID:    uuid.New(),
		MarketID:  uuid.New(),
		Selection: domain.Selection{Direction: domain.BetDirection("MAYBE")},
		Amount:    decimal.NewFromInt(100),
	}
	if _, err := svc.PlaceBet(context.Background(), req); err != domain.ErrInvalidSelection {
		t.Errorf("PlaceBet err = %v, want ErrInvalidSelection", err)
	}
}
