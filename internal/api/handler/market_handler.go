package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/service"
)

// MarketHandler serves public market queries.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// ListMarkets godoc
// GET /api/markets?status=open&page=1&limit=20
func (h *MarketHandler) ListMarkets(c *gin.Context) {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit
	status := domain.MarketStatus(c.Query("status"))

	markets, err := h.marketSvc.ListMarkets(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not list markets")
		return
	}
	respondList(c, markets, page, limit)
}

// GetOpen godoc
// GET /api/markets/open
func (h *MarketHandler) GetOpen(c *gin.Context) {
	markets, err := h.marketSvc.ListOpenMarkets(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not list open markets")
		return
	}
	respondSuccess(c, http.StatusOK, markets)
}

// GetByID godoc
// GET /api/markets/:id
func (h *MarketHandler) GetByID(c *gin.Context) {
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
