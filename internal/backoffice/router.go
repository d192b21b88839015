// Package backoffice wires the admin HTTP surface served on its own port:
// market lifecycle controls, resolution, user management, and the dashboard.
package backoffice

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yomifun/zeny/internal/backoffice/handler"
	"github.com/yomifun/zeny/internal/config"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/repository"
	"github.com/yomifun/zeny/internal/service"
	"github.com/yomifun/zeny/internal/ws"
)

// BackofficeDeps bundles every dependency needed for the admin router.
type BackofficeDeps struct {
	AuthSvc       *service.AuthService
	MarketSvc     *service.MarketService
	ResolutionSvc *service.ResolutionService
	ProfileSvc    *service.ProfileService
	UserRepo      *repository.UserRepository
	MarketRepo    *repository.MarketRepository
	BetRepo       *repository.BetRepository
	ProfileRepo   *repository.ProfileRepository
	Hub           *ws.Hub
	Cfg           *config.Config
}

// SetupBackofficeRouter creates the admin Gin engine, served separately from
// the public API.
func SetupBackofficeRouter(deps BackofficeDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(ipWhitelistMiddleware(deps.Cfg.Server.BackofficeAllowedIPs))

	dashH := handler.NewDashboardHandler(deps.MarketRepo, deps.BetRepo, deps.UserRepo, deps.Hub)
	marketH := handler.NewMarketAdminHandler(deps.MarketSvc, deps.ResolutionSvc, deps.Hub)
	userH := handler.NewUserAdminHandler(deps.UserRepo, deps.ProfileSvc)

	jwtMW := adminJWTMiddleware(deps.AuthSvc)

	admin := r.Group("/admin")
	admin.Use(jwtMW)
	{
		admin.GET("/dashboard", dashH.Dashboard)

		// Markets
		m := admin.Group("/markets")
		{
			m.GET("", marketH.List)
			m.POST("", marketH.Create)
			m.GET("/:id", marketH.Detail)
			m.POST("/:id/close", marketH.Close)
			m.POST("/:id/cancel", marketH.Cancel)
			m.POST("/:id/resolve", marketH.Resolve)
			m.POST("/:id/resolve-multi", marketH.ResolveMulti)
		}

		// Users
		u := admin.Group("/users")
		{
			u.GET("", userH.List)
			u.GET("/:id", userH.Detail)
			u.POST("/:id/suspend", userH.Suspend)
			u.POST("/:id/activate", userH.Activate)
			u.POST("/:id/balance", userH.AdjustBalance)
		}
	}

	return r
}

// ── IP whitelist middleware ───────────────────────────────────────────────────

// ipWhitelistMiddleware blocks requests from IPs not in the allowlist.
// allowedIPs is a comma-separated string; empty means allow all.
func ipWhitelistMiddleware(allowedIPs string) gin.HandlerFunc {
	if allowedIPs == "" {
		return func(c *gin.Context) { c.Next() } // dev mode: no restriction
	}

	allowed := make(map[string]bool)
	for _, ip := range strings.Split(allowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !allowed[clientIP] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied: your IP is not whitelisted",
			})
			return
		}
		c.Next()
	}
}

// ── Admin JWT middleware ──────────────────────────────────────────────────────

// adminJWTMiddleware validates a JWT and requires the admin role.
func adminJWTMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := authSvc.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil || claims.TokenType != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if claims.Role != string(domain.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}

		c.Set("userID", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}
