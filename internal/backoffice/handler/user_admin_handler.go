package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yomifun/zeny/internal/domain"
	"github.com/yomifun/zeny/internal/repository"
	"github.com/yomifun/zeny/internal/service"
)

// UserAdminHandler serves user management endpoints for the back-office.
type UserAdminHandler struct {
	userRepo   *repository.UserRepository
	profileSvc *service.ProfileService
}

// NewUserAdminHandler creates a UserAdminHandler.
func NewUserAdminHandler(userRepo *repository.UserRepository, profileSvc *service.ProfileService) *UserAdminHandler {
	return &UserAdminHandler{userRepo: userRepo, profileSvc: profileSvc}
}

// List godoc
// GET /admin/users?page=1&limit=50
func (h *UserAdminHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)
	offset := (page - 1) * limit

	users, err := h.userRepo.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not list users")
		return
	}
	respondList(c, users, page, limit)
}

// Detail godoc
// GET /admin/users/:id
func (h *UserAdminHandler) Detail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_USER_ID", "invalid user id")
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "ERR_USER_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch user")
		return
	}

	profile, err := h.profileSvc.GetProfile(c.Request.Context(), id)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch profile")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"user": user, "profile": profile})
}

// Suspend godoc
// POST /admin/users/:id/suspend
func (h *UserAdminHandler) Suspend(c *gin.Context) {
	h.setActive(c, false)
}

// Activate godoc
// POST /admin/users/:id/activate
func (h *UserAdminHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *UserAdminHandler) setActive(c *gin.Context, active bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_USER_ID", "invalid user id")
		return
	}

	if err := h.userRepo.SetActive(c.Request.Context(), id, active); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "ERR_USER_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not update user")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user_id": id, "is_active": active})
}

// AdjustBalance godoc
// POST /admin/users/:id/balance
// Body: {"amount":"-250","reason":"duplicate top-up correction"}
func (h *UserAdminHandler) AdjustBalance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_USER_ID", "invalid user id")
		return
	}

	var body struct {
		Amount string `json:"amount" binding:"required"`
		Reason string `json:"reason" binding:"required,min=5"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil || amount.IsZero() {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a non-zero decimal string")
		return
	}

	if err := h.profileSvc.AdminAdjust(c.Request.Context(), id, amount, body.Reason); err != nil {
		switch {
		case errors.Is(err, domain.ErrProfileNotFound):
			respondError(c, http.StatusNotFound, "ERR_PROFILE_NOT_FOUND", err.Error())
		case errors.Is(err, domain.ErrInsufficientBalance):
			respondError(c, http.StatusConflict, "ERR_INSUFFICIENT_BALANCE", "adjustment would make the balance negative")
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not adjust balance")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user_id": id, "adjusted": amount})
}
