package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/api/middleware"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/service"
)

// BetHandler serves bet placement and history endpoints.
type BetHandler struct {
	betSvc    *service.BetService
	marketSvc *service.MarketService
}

// NewBetHandler creates a BetHandler.
func NewBetHandler(betSvc *service.BetService, marketSvc *service.MarketService) *BetHandler {
	return &BetHandler{betSvc: betSvc, marketSvc: marketSvc}
}

// PlaceBet godoc
// POST /api/bets [JWT]
// Body: {"market_id":"uuid","selector":"NON Les Bleus","amount":"100"}
//
// The selector is the legacy text form: for binary markets "OUI"/"NON" (any
// other value counts as OUI), for multi markets the outcome name with an
// optional "OUI "/"NON " prefix.
func (h *BetHandler) PlaceBet(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var body struct {
		MarketID string `json:"market_id" binding:"required"`
		Selector string `json:"selector"  binding:"required"`
		Amount   string `json:"amount"    binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	marketID, err := uuid.Parse(body.MarketID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_MARKET_ID", "invalid market_id format")
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil || !amount.IsPositive() {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a positive decimal string")
		return
	}

	// The selector parses against the market type at the HTTP edge; the
	// service works only with the explicit Selection value.
	detail, err := h.marketSvc.GetMarket(c.Request.Context(), marketID)
	if err != nil {
		if errors.Is(err, domain.ErrMarketNotFound) {
			respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not place bet")
		return
	}
	selection, err := domain.ParseSelector(detail.Market.Type, body.Selector)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_SELECTION", err.Error())
		return
	}

	req := domain.PlaceBetRequest{
		UserID:    userID,
		MarketID:  marketID,
		Selection: selection,
		Amount:    amount,
	}

	result, err := h.betSvc.PlaceBet(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrStakeOutOfRange):
			respondError(c, http.StatusBadRequest, "ERR_STAKE_OUT_OF_RANGE", err.Error())
		case errors.Is(err, domain.ErrInvalidSelection):
			respondError(c, http.StatusBadRequest, "ERR_INVALID_SELECTION", err.Error())
		case errors.Is(err, domain.ErrInsufficientBalance):
			respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_BALANCE", err.Error())
		case errors.Is(err, domain.ErrAlreadyBet):
			respondError(c, http.StatusConflict, "ERR_ALREADY_BET", err.Error())
		case errors.Is(err, domain.ErrMarketClosed), errors.Is(err, domain.ErrMarketCancelled):
			respondError(c, http.StatusConflict, "ERR_MARKET_CLOSED", err.Error())
		case errors.Is(err, domain.ErrMarketNotFound):
			respondError(c, http.StatusNotFound, "ERR_MARKET_NOT_FOUND", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not place bet")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, result)
}

// GetMyBets godoc
// GET /api/bets/my?page=1&limit=20 [JWT]
func (h *BetHandler) GetMyBets(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	bets, err := h.betSvc.GetUserBets(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch bets")
		return
	}
	respondList(c, bets, page, limit)
}

// GetBetByID godoc
// GET /api/bets/:id [JWT]
func (h *BetHandler) GetBetByID(c *gin.Context) {
	userID := middleware.GetUserID(c)

	betID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_BET_ID", "invalid bet id")
		return
	}

	bet, err := h.betSvc.GetBet(c.Request.Context(), userID, betID)
	if err != nil {
		if errors.Is(err, domain.ErrBetNotFound) {
			respondError(c, http.StatusNotFound, "ERR_BET_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch bet")
		return
	}
	respondSuccess(c, http.StatusOK, bet)
}
