package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/adminops"
	"github.com/sebastian05-bossu/1337loader/internal/http/middleware"
	"github.com/sebastian05-bossu/1337loader/internal/models"
)

// AccessKeyHandler generates and lists access keys.
type AccessKeyHandler struct {
	ops *adminops.Service
}

// NewAccessKeyHandler constructs an AccessKeyHandler.
func NewAccessKeyHandler(ops *adminops.Service) *AccessKeyHandler {
	return &AccessKeyHandler{ops: ops}
}

// createAccessKeyRequest captures the payload for generating a key.
type createAccessKeyRequest struct {
	Prefix string `json:"prefix"`
}

// Create generates a new key with the requested prefix.
func (h *AccessKeyHandler) Create(c *gin.Context) {
	var body createAccessKeyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	key, errGenerate := h.ops.GenerateKey(c.Request.Context(), middleware.UserID(c), body.Prefix)
	if errGenerate != nil {
		writeAdminError(c, "generate key", errGenerate)
		return
	}
	c.JSON(http.StatusCreated, formatAccessKey(&key))
}

// List returns access keys, newest first.
func (h *AccessKeyHandler) List(c *gin.Context) {
	keys, errList := h.ops.ListKeys(c.Request.Context(), middleware.UserID(c), listOptions(c))
	if errList != nil {
		writeAdminError(c, "list keys", errList)
		return
	}
	out := make([]gin.H, 0, len(keys))
	for i := range keys {
		out = append(out, formatAccessKey(&keys[i]))
	}
	c.JSON(http.StatusOK, gin.H{"access_keys": out})
}

func formatAccessKey(k *models.AccessKey) gin.H {
	return gin.H{
		"id":          k.ID,
		"key":         k.Key,
		"is_used":     k.IsUsed,
		"redeemed_by": k.RedeemedBy,
		"redeemed_at": k.RedeemedAt,
		"created_by":  k.CreatedBy,
		"created_at":  k.CreatedAt,
	}
}
