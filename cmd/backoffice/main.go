// Package main is the entry point for the YOMI.fun back-office admin server.
// Runs on its own port and exposes admin-only endpoints protected by an IP
// allowlist and admin JWTs.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/yomifun/zeny/internal/backoffice"
	"github.com/yomifun/zeny/internal/config"
	"github.com/yomifun/zeny/internal/repository"
	"github.com/yomifun/zeny/internal/service"
)

func main() {
	// ── Config + logger ───────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting yomi backoffice server",
		"env", cfg.Server.Env, "port", cfg.Server.BackofficePort)

	// ── Database ──────────────────────────────────────────────────────────────
	db, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err = db.Ping(); err != nil {
		logger.Error("database ping failed", "err", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// ── Repositories ──────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	marketRepo := repository.NewMarketRepository(db)
	outcomeRepo := repository.NewOutcomeRepository(db)
	betRepo := repository.NewBetRepository(db)

	// ── Services ──────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(db, userRepo, profileRepo, cfg)
	profileSvc := service.NewProfileService(db, profileRepo, logger)
	marketSvc := service.NewMarketService(db, marketRepo, outcomeRepo, logger)

	// ResolutionService needed for resolve endpoints and CancelMarket refunds
	resolutionSvc := service.NewResolutionService(db, marketRepo, outcomeRepo, betRepo, profileRepo, logger)
	marketSvc.SetRefunder(resolutionSvc)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Router ────────────────────────────────────────────────────────────────
	router := backoffice.SetupBackofficeRouter(backoffice.BackofficeDeps{
		AuthSvc:       authSvc,
		MarketSvc:     marketSvc,
		ResolutionSvc: resolutionSvc,
		ProfileSvc:    profileSvc,
		UserRepo:      userRepo,
		MarketRepo:    marketRepo,
		BetRepo:       betRepo,
		ProfileRepo:   profileRepo,
		Hub:           nil, // backoffice does not directly serve WS
		Cfg:           cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.BackofficePort,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── Start ─────────────────────────────────────────────────────────────────
	go func() {
		logger.Info("backoffice http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("backoffice server error", "err", err)
			stop()
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("backoffice shutdown error", "err", err)
	}

	db.Close()
	logger.Info("backoffice server stopped cleanly")
}
