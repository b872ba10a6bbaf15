package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/http/middleware"
	"github.com/sebastian05-bossu/1337loader/internal/models"
	"github.com/sebastian05-bossu/1337loader/internal/ratelimit"
	"github.com/sebastian05-bossu/1337loader/internal/redeem"
	"github.com/sebastian05-bossu/1337loader/internal/store"
	log "github.com/sirupsen/logrus"
)

// LicenseHandler serves key redemption, license status and the download link.
type LicenseHandler struct {
	store       store.RecordStore
	redeemer    redeem.Service
	limiter     *ratelimit.Manager
	retry       redeem.RetryPolicy
	downloadURL string
}

// NewLicenseHandler constructs a LicenseHandler.
func NewLicenseHandler(s store.RecordStore, redeemer redeem.Service, limiter *ratelimit.Manager, retry redeem.RetryPolicy, downloadURL string) *LicenseHandler {
	return &LicenseHandler{
		store:       s,
		redeemer:    redeemer,
		limiter:     limiter,
		retry:       retry,
		downloadURL: downloadURL,
	}
}

// redeemRequest is the payload for key redemption.
type redeemRequest struct {
	Key string `json:"key"`
}

// Redeem redeems an access key for the caller.
func (h *LicenseHandler) Redeem(c *gin.Context) {
	var body redeemRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	userID := middleware.UserID(c)

	limit, errLimit := h.limiter.Check(c.Request.Context(), ratelimit.ScopeRedeem, userID)
	if errLimit == nil && !limit.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":    "too many redemption attempts, try again later",
			"code":     "rate_limited",
			"reset_at": limit.Reset,
		})
		return
	}

	result, errRedeem := redeem.RedeemWithRetry(c.Request.Context(), h.redeemer, userID, body.Key, h.retry)
	if errRedeem != nil {
		status, code, message := redeemErrorResponse(errRedeem)
		if status == http.StatusInternalServerError {
			log.WithError(errRedeem).WithField("user_id", userID).Error("redeem failed")
		}
		c.JSON(status, gin.H{"error": message, "code": code})
		return
	}

	message := "license activated"
	if result == redeem.AlreadyActive {
		message = "license already active"
	}
	c.JSON(http.StatusOK, gin.H{
		"result":         result,
		"message":        message,
		"license_status": models.LicenseStatusActive,
	})
}

// redeemErrorResponse maps redemption failures to distinct responses.
func redeemErrorResponse(err error) (int, string, string) {
	switch {
	case errors.Is(err, redeem.ErrInvalidKey):
		return http.StatusNotFound, "invalid_key", "this key does not exist"
	case errors.Is(err, redeem.ErrKeyAlreadyRedeemed):
		return http.StatusConflict, "key_already_redeemed", "this key has already been redeemed"
	case errors.Is(err, redeem.ErrKeyReservedByAnother):
		return http.StatusConflict, "key_reserved", "this key is being redeemed by another account"
	case errors.Is(err, redeem.ErrActivationPending):
		return http.StatusAccepted, "activation_pending", "key accepted, activation is pending; submit the same key again shortly"
	default:
		return http.StatusInternalServerError, "internal", "redeem failed"
	}
}

// Get returns the caller's license status.
func (h *LicenseHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	license, errFind := h.store.GetLicense(c.Request.Context(), userID)
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"status": models.LicenseStatusInactive, "activated_at": nil})
			return
		}
		log.WithError(errFind).Error("get license failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get license failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       license.Status,
		"activated_at": license.ActivatedAt,
	})
}

// Download returns the client download link to callers with an active license.
func (h *LicenseHandler) Download(c *gin.Context) {
	license, errFind := h.store.GetLicense(c.Request.Context(), middleware.UserID(c))
	if errFind != nil && !errors.Is(errFind, store.ErrNotFound) {
		log.WithError(errFind).Error("get license failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get license failed"})
		return
	}
	if errFind != nil || !license.IsActive() {
		c.JSON(http.StatusForbidden, gin.H{"error": "an active license is required"})
		return
	}
	if h.downloadURL == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "download not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.downloadURL})
}
