package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/service"
	"github.com/yomifun/zeny/internal/ws"
)

// MarketAdminHandler serves market lifecycle endpoints for the back-office.
type MarketAdminHandler struct {
	marketSvc     *service.MarketService
	resolutionSvc *service.ResolutionService
	hub           *ws.Hub
}

// NewMarketAdminHandler creates a MarketAdminHandler.
func NewMarketAdminHandler(marketSvc *service.MarketService, resolutionSvc *service.ResolutionService, hub *ws.Hub) *MarketAdminHandler {
	return &MarketAdminHandler{marketSvc: marketSvc, resolutionSvc: resolutionSvc, hub: hub}
}

// List godoc
// GET /admin/markets?status=open&page=1&limit=50
func (h *MarketAdminHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)
	offset := (page - 1) * limit
	status := domain.MarketStatus(c.Query("status"))

	markets, err := h.marketSvc.ListMarkets(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not list markets")
		return
	}
	respondList(c, markets, page, limit)
}

// Create godoc
// POST /admin/markets
func (h *MarketAdminHandler) Create(c *gin.Context) {
	var req service.CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	detail, err := h.marketSvc.CreateMarket(c.Request.Context(), req)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_CREATE_MARKET", err.Error())
		return
	}
	if h.hub != nil {
		h.hub.BroadcastNewMarket(detail.Market)
	}
	respondSuccess(c, http.StatusCreated, detail)
}

// Detail godoc
// GET /admin/markets/:id
func (h *MarketAdminHandler) Detail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_MARKET_ID", "invalid market id")
		return
	}

	detail, err := h.marketSvc.GetMarket(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrMarketNotFound) {
			respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch market")
		return
	}
	respondSuccess(c, http.StatusOK, detail)
}

// Close godoc
// POST /admin/markets/:id/close
func (h *MarketAdminHandler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_MARKET_ID", "invalid market id")
		return
	}

	if err := h.marketSvc.CloseMarket(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrMarketNotFound) {
			respondError(c, http.StatusConflict, "ERR_MARKET_NOT_OPEN", "market not found or not open")
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not close market")
		return
	}
	if h.hub != nil {
		h.hub.BroadcastMarketClosed(id)
	}
	respondSuccess(c, http.StatusOK, gin.H{"market_id": id, "status": domain.StatusClosed})
}

// Cancel godoc
// POST /admin/markets/:id/cancel
func (h *MarketAdminHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_MARKET_ID", "invalid market id")
		return
	}

	refunded, err := h.marketSvc.CancelMarket(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrMarketNotFound) {
			respondError(c, http.StatusConflict, "ERR_MARKET_NOT_CANCELLABLE", "market not found or already settled")
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not cancel market")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"market_id": id,
		"status":    domain.StatusCancelled,
		"refunded":  refunded,
	})
}

// Resolve godoc
// POST /admin/markets/:id/resolve
// Body: {"winning_outcome_id":"uuid"}
func (h *MarketAdminHandler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_MARKET_ID", "invalid market id")
		return
	}

	var body struct {
		WinningOutcomeID string `json:"winning_outcome_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	winnerID, err := uuid.Parse(body.WinningOutcomeID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_OUTCOME_ID", "invalid winning_outcome_id format")
		return
	}

	result, err := h.resolutionSvc.ResolveMarket(c.Request.Context(), id, winnerID)
	if err != nil {
		respondResolutionError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// ResolveMulti godoc
// POST /admin/markets/:id/resolve-multi
// Body: {"winners":{"<outcome-uuid>":true,"<outcome-uuid>":false,...}}
// Every outcome of the market must appear in the map.
func (h *MarketAdminHandler) ResolveMulti(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_MARKET_ID", "invalid market id")
		return
	}

	var body struct {
		Winners map[string]bool `json:"winners" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	flags := make(map[uuid.UUID]bool, len(body.Winners))
	for k, v := range body.Winners {
		outcomeID, err := uuid.Parse(k)
		if err != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_OUTCOME_ID", "invalid outcome id in winners map")
			return
		}
		flags[outcomeID] = v
	}

	result, err := h.resolutionSvc.ResolveMarketMulti(c.Request.Context(), id, flags)
	if err != nil {
		respondResolutionError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// respondResolutionError maps resolution domain errors onto HTTP statuses.
func respondResolutionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMarketNotFound), errors.Is(err, domain.ErrOutcomeNotFound):
		respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrResolutionInProgress):
		respondError(c, http.StatusConflict, "ERR_RESOLUTION_IN_PROGRESS", err.Error())
	case errors.Is(err, domain.ErrMarketCancelled):
		respondError(c, http.StatusConflict, "ERR_MARKET_CANCELLED", err.Error())
	case errors.Is(err, domain.ErrIncompleteResolution):
		respondError(c, http.StatusBadRequest, "ERR_INCOMPLETE_RESOLUTION", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not resolve market")
	}
}
