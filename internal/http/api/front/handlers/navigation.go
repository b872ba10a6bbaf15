package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/authz"
	"github.com/sebastian05-bossu/1337loader/internal/http/middleware"
	"github.com/sebastian05-bossu/1337loader/internal/navigation"
)

// NavigationHandler exposes the navigation gate to the frontend.
type NavigationHandler struct {
	resolver middleware.StateResolver
}

// NewNavigationHandler constructs a NavigationHandler.
func NewNavigationHandler(resolver middleware.StateResolver) *NavigationHandler {
	return &NavigationHandler{resolver: resolver}
}

// List returns every screen definition.
func (h *NavigationHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"screens": navigation.Screens()})
}

// Decide re-resolves the caller and returns the decision for the requested screen.
func (h *NavigationHandler) Decide(c *gin.Context) {
	screen, ok := navigation.Lookup(c.Param("screen"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown screen"})
		return
	}

	session := navigation.Session{UserID: middleware.UserID(c)}
	state := authz.Restrictive()
	var errResolve error
	if session.Authenticated() && screen.Level != navigation.LevelPublic {
		state, errResolve = h.resolver.Resolve(c.Request.Context(), session.UserID)
	}

	decision := navigation.Decide(screen, session, state, errResolve)
	c.JSON(http.StatusOK, gin.H{
		"screen":   screen,
		"decision": decision,
	})
}
