package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/config"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/service"
)

// PaymentHandler receives top-up confirmations from the payment provider.
type PaymentHandler struct {
	profileSvc *service.ProfileService
	cfg        *config.Config
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(profileSvc *service.ProfileService, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{profileSvc: profileSvc, cfg: cfg}
}

// Webhook godoc
// POST /api/payments/webhook
// Header: X-Webhook-Secret: <shared secret>
// Body: {"user_id":"uuid","amount":"500","payment_ref":"pay_123"}
//
// The provider retries on non-2xx, so every validation failure is explicit.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	secret := h.cfg.Payment.WebhookSecret
	got := c.GetHeader("X-Webhook-Secret")
	if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
		respondError(c, http.StatusUnauthorized, "ERR_WEBHOOK_AUTH", "invalid webhook secret")
		return
	}

	var body struct {
		UserID     string `json:"user_id"     binding:"required"`
		Amount     string `json:"amount"      binding:"required"`
		PaymentRef string `json:"payment_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	userID, err := uuid.Parse(body.UserID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_USER_ID", "invalid user_id format")
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil || !amount.IsPositive() {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a positive decimal string")
		return
	}

	if err := h.profileSvc.TopUp(c.Request.Context(), userID, amount, body.PaymentRef); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			respondError(c, http.StatusNotFound, "ERR_PROFILE_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not process top-up")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"credited": amount})
}
