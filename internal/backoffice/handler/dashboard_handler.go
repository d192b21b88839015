package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yomifun/zeny/internal/repository"
	"github.com/yomifun/zeny/internal/ws"
)

// DashboardHandler serves the /admin/dashboard endpoint: a single snapshot of
// platform health for the ops view.
type DashboardHandler struct {
	marketRepo *repository.MarketRepository
	betRepo    *repository.BetRepository
	userRepo   *repository.UserRepository
	hub        *ws.Hub
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(
	marketRepo *repository.MarketRepository,
	betRepo *repository.BetRepository,
	userRepo *repository.UserRepository,
	hub *ws.Hub,
) *DashboardHandler {
	return &DashboardHandler{
		marketRepo: marketRepo,
		betRepo:    betRepo,
		userRepo:   userRepo,
		hub:        hub,
	}
}

// Dashboard godoc
// GET /admin/dashboard
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	marketCounts, err := h.marketRepo.CountByStatus(ctx)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load market counts")
		return
	}

	pendingBets, err := h.betRepo.CountPending(ctx)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load bet counts")
		return
	}

	userCount, err := h.userRepo.Count(ctx)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not load user count")
		return
	}

	connected := 0
	if h.hub != nil {
		connected = h.hub.ConnectedCount()
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"markets":      marketCounts,
		"pending_bets": pendingBets,
		"users":        userCount,
		"ws_clients":   connected,
		"generated_at": time.Now().UTC(),
	})
}
