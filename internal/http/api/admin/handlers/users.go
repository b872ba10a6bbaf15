package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/adminops"
	"github.com/sebastian05-bossu/1337loader/internal/http/middleware"
)

// UserHandler lists registered profiles.
type UserHandler struct {
	ops *adminops.Service
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(ops *adminops.Service) *UserHandler {
	return &UserHandler{ops: ops}
}

// List returns profiles, newest first, optionally filtered by email.
func (h *UserHandler) List(c *gin.Context) {
	profiles, errList := h.ops.ListUsers(c.Request.Context(), middleware.UserID(c), listOptions(c))
	if errList != nil {
		writeAdminError(c, "list users", errList)
		return
	}
	out := make([]gin.H, 0, len(profiles))
	for _, profile := range profiles {
		out = append(out, gin.H{
			"id":         profile.ID,
			"email":      profile.Email,
			"created_at": profile.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}
