package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/http/middleware"
	"github.com/sebastian05-bossu/1337loader/internal/identity"
	log "github.com/sirupsen/logrus"
)

// MFAHandler manages the caller's TOTP second factor.
type MFAHandler struct {
	identity *identity.Service
}

// NewMFAHandler constructs an MFAHandler.
func NewMFAHandler(identitySvc *identity.Service) *MFAHandler {
	return &MFAHandler{identity: identitySvc}
}

// totpCodeRequest carries a TOTP code.
type totpCodeRequest struct {
	Code string `json:"code"`
}

// PrepareTOTP generates a pending secret and returns its provisioning URL.
func (h *MFAHandler) PrepareTOTP(c *gin.Context) {
	enrollment, errPrepare := h.identity.PrepareTOTP(c.Request.Context(), middleware.UserID(c))
	if errPrepare != nil {
		h.writeError(c, errPrepare)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

// ConfirmTOTP enables TOTP after checking a code from the pending secret.
func (h *MFAHandler) ConfirmTOTP(c *gin.Context) {
	var body totpCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if errConfirm := h.identity.ConfirmTOTP(c.Request.Context(), middleware.UserID(c), body.Code); errConfirm != nil {
		h.writeError(c, errConfirm)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DisableTOTP turns TOTP off after checking a current code.
func (h *MFAHandler) DisableTOTP(c *gin.Context) {
	var body totpCodeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if errDisable := h.identity.DisableTOTP(c.Request.Context(), middleware.UserID(c), body.Code); errDisable != nil {
		h.writeError(c, errDisable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *MFAHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidTOTPCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid totp code"})
	case errors.Is(err, identity.ErrTOTPNotPrepared):
		c.JSON(http.StatusBadRequest, gin.H{"error": "totp not prepared"})
	case errors.Is(err, identity.ErrTOTPAlreadyEnabled):
		c.JSON(http.StatusConflict, gin.H{"error": "totp already enabled"})
	case errors.Is(err, identity.ErrTOTPNotEnabled):
		c.JSON(http.StatusConflict, gin.H{"error": "totp not enabled"})
	case errors.Is(err, identity.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
	default:
		log.WithError(err).Error("mfa update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mfa update failed"})
	}
}
