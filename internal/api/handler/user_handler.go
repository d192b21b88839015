package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yomifun/zeny/internal/api/middleware"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/service"
)

// UserHandler serves auth and profile endpoints.
type UserHandler struct {
	authSvc    *service.AuthService
	profileSvc *service.ProfileService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(authSvc *service.AuthService, profileSvc *service.ProfileService) *UserHandler {
	return &UserHandler{authSvc: authSvc, profileSvc: profileSvc}
}

// Register godoc
// POST /api/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	resp, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			respondError(c, http.StatusConflict, "ERR_EMAIL_TAKEN", err.Error())
		case errors.Is(err, domain.ErrUsernameTaken):
			respondError(c, http.StatusConflict, "ERR_USERNAME_TAKEN", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not register")
		}
		return
	}
	respondSuccess(c, http.StatusCreated, resp)
}

// Login godoc
// POST /api/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	resp, err := h.authSvc.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "ERR_INVALID_CREDENTIALS", err.Error())
		case errors.Is(err, domain.ErrUserInactive):
			respondError(c, http.StatusForbidden, "ERR_USER_INACTIVE", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not log in")
		}
		return
	}
	respondSuccess(c, http.StatusOK, resp)
}

// Refresh godoc
// POST /api/auth/refresh
func (h *UserHandler) Refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	access, refresh, err := h.authSvc.RefreshToken(c.Request.Context(), body.RefreshToken)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "ERR_TOKEN_INVALID", domain.ErrTokenInvalid.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Me godoc
// GET /api/me [JWT]
func (h *UserHandler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)

	profile, err := h.profileSvc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			respondError(c, http.StatusNotFound, "ERR_PROFILE_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch profile")
		return
	}
	respondSuccess(c, http.StatusOK, profile)
}

// GetTransactions godoc
// GET /api/me/transactions?page=1&limit=20 [JWT]
func (h *UserHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	txns, err := h.profileSvc.GetTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch transactions")
		return
	}
	respondList(c, txns, page, limit)
}

// Leaderboard godoc
// GET /api/leaderboard?limit=20
func (h *UserHandler) Leaderboard(c *gin.Context) {
	_, limit := parsePagination(c)

	profiles, err := h.profileSvc.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch leaderboard")
		return
	}
	respondSuccess(c, http.StatusOK, profiles)
}
