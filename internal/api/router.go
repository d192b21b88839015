// Package api wires the public HTTP surface: auth, markets, bets, profile,
// the payment webhook, and the WebSocket feed.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yomifun/zeny/internal/api/handler"
	"github.com/yomifun/zeny/internal/api/middleware"
	"github.com/yomifun/zeny/internal/config"
	"github.com/yomifun/zeny/internal/service"
	"github.com/yomifun/zeny/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AuthSvc    *service.AuthService
	ProfileSvc *service.ProfileService
	MarketSvc  *service.MarketService
	BetSvc     *service.BetService
	Hub        *ws.Hub
	Cfg        *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	userH := handler.NewUserHandler(deps.AuthSvc, deps.ProfileSvc)
	marketH := handler.NewMarketHandler(deps.MarketSvc)
	betH := handler.NewBetHandler(deps.BetSvc, deps.MarketSvc)
	paymentH := handler.NewPaymentHandler(deps.ProfileSvc, deps.Cfg)

	// ── JWT middleware (shared) ───────────────────────────────────────────────
	jwtMW := middleware.JWTMiddleware(deps.AuthSvc)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	authRL := middleware.RateLimitMiddleware(10) // 10 req/s per IP for auth endpoints
	betRL := middleware.RateLimitMiddleware(30)  // 30 req/s per IP for bet endpoints

	api := r.Group("/api")
	{
		// ── Auth (public, strict rate limit) ─────────────────────────────────
		auth := api.Group("/auth")
		auth.Use(authRL)
		{
			auth.POST("/register", userH.Register)
			auth.POST("/login", userH.Login)
			auth.POST("/refresh", userH.Refresh)
		}

		// ── Markets (public) ─────────────────────────────────────────────────
		markets := api.Group("/markets")
		{
			markets.GET("", marketH.ListMarkets)
			markets.GET("/open", marketH.GetOpen)
			markets.GET("/:id", marketH.GetByID)
		}

		// ── Leaderboard (public) ─────────────────────────────────────────────
		api.GET("/leaderboard", userH.Leaderboard)

		// ── Payment webhook (shared-secret auth, no JWT) ─────────────────────
		api.POST("/payments/webhook", paymentH.Webhook)

		// ── Authenticated routes ──────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(jwtMW)
		{
			// Profile
			authed.GET("/me", userH.Me)
			authed.GET("/me/transactions", userH.GetTransactions)

			// Bets
			bets := authed.Group("/bets")
			bets.Use(betRL)
			{
				bets.POST("", betH.PlaceBet)
				bets.GET("/my", betH.GetMyBets)
				bets.GET("/:id", betH.GetBetByID)
			}
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In development all origins are allowed; in production only the site origins.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			// Development: allow any origin
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := map[string]bool{
				"https://yomi.fun":     true,
				"https://www.yomi.fun": true,
			}
			if allowed[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID, X-Webhook-Secret")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
