package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/adminops"
	"github.com/sebastian05-bossu/1337loader/internal/http/middleware"
)

// BanHandler bans and unbans users.
type BanHandler struct {
	ops *adminops.Service
}

// NewBanHandler constructs a BanHandler.
func NewBanHandler(ops *adminops.Service) *BanHandler {
	return &BanHandler{ops: ops}
}

// createBanRequest captures the payload for banning a user.
type createBanRequest struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// Create bans the user with the given email.
func (h *BanHandler) Create(c *gin.Context) {
	var body createBanRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ban, errBan := h.ops.BanByEmail(c.Request.Context(), middleware.UserID(c), body.Email, body.Reason)
	if errBan != nil {
		writeAdminError(c, "ban user", errBan)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         ban.ID,
		"user_id":    ban.UserID,
		"banned_by":  ban.BannedBy,
		"reason":     ban.Reason,
		"is_active":  ban.IsActive,
		"created_at": ban.CreatedAt,
	})
}

// List returns active bans with the banned user's email.
func (h *BanHandler) List(c *gin.Context) {
	bans, errList := h.ops.ListActiveBans(c.Request.Context(), middleware.UserID(c), listOptions(c))
	if errList != nil {
		writeAdminError(c, "list bans", errList)
		return
	}
	out := make([]gin.H, 0, len(bans))
	for _, ban := range bans {
		out = append(out, gin.H{
			"id":         ban.ID,
			"user_id":    ban.UserID,
			"email":      ban.Email,
			"banned_by":  ban.BannedBy,
			"reason":     ban.Reason,
			"created_at": ban.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"bans": out})
}

// Delete lifts every active ban of the user.
func (h *BanHandler) Delete(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if errUnban := h.ops.Unban(c.Request.Context(), middleware.UserID(c), userID); errUnban != nil {
		writeAdminError(c, "unban user", errUnban)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
