package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/authz"
	"github.com/sebastian05-bossu/1337loader/internal/navigation"
)

// StateResolver resolves the authorization state of a user.
type StateResolver interface {
	Resolve(ctx context.Context, userID string) (authz.State, error)
}

// RequireAccess re-resolves the caller on every request and applies the navigation gate for level.
// It must run after RequireSession.
func RequireAccess(resolver StateResolver, level navigation.Level) gin.HandlerFunc {
	screen := navigation.Screen{Key: string(level), Level: level}
	return func(c *gin.Context) {
		userID := UserID(c)
		state, errResolve := resolver.Resolve(c.Request.Context(), userID)
		decision := navigation.Decide(screen, navigation.Session{UserID: userID}, state, errResolve)

		if !decision.Allowed {
			switch {
			case decision.Redirect == navigation.PathLogin:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "redirect": decision.Redirect})
			case decision.Redirect == navigation.PathBanned:
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account banned", "redirect": decision.Redirect})
			case decision.Unresolved:
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authorization unavailable"})
			default:
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "redirect": decision.Redirect})
			}
			return
		}

		if errResolve != nil {
			state = authz.Restrictive()
		}
		c.Set(ContextState, state)
		c.Set(ContextResolved, errResolve == nil)
		c.Next()
	}
}

// State returns the state stored by RequireAccess and whether it was resolved.
func State(c *gin.Context) (authz.State, bool) {
	value, ok := c.Get(ContextState)
	if !ok {
		return authz.Restrictive(), false
	}
	state, _ := value.(authz.State)
	return state, c.GetBool(ContextResolved)
}
