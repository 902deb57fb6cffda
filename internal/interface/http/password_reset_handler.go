package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/nordveldt/userbase/internal/application"
	"github.com/nordveldt/userbase/pkg/response"
	"github.com/nordveldt/userbase/pkg/validation"
)

type PasswordResetHandler struct {
	Svc    *userapp.PasswordResetService
	Logger *logrus.Logger
}

func NewPasswordResetHandler(svc *userapp.PasswordResetService, logger *logrus.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{Svc: svc, Logger: logger}
}

type requestResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type validateResetRequest struct {
	Token string `json:"token" binding:"required"`
}

type confirmResetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
}

// Request answers 202 whether or not the email is known. The response must
// not reveal which addresses have accounts.
func (h *PasswordResetHandler) Request(c *gin.Context) {
	var req requestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.RequestReset(c.Request.Context(), req.Email); err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("password reset request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to process reset request", nil)
		return
	}
	response.Success[any](c, http.StatusAccepted, gin.H{"requested": true}, "reset requested", nil)
}

func (h *PasswordResetHandler) Validate(c *gin.Context) {
	var req validateResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	ok, err := h.Svc.IsValid(c.Request.Context(), req.Token)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to validate token", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"valid": ok}, "token checked", nil)
}

func (h *PasswordResetHandler) Confirm(c *gin.Context) {
	var req confirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.Confirm(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, userapp.ErrInvalidResetToken) {
			response.Error[any](c, http.StatusBadRequest, "token is invalid or expired", nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("password reset confirm failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to reset password", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}
