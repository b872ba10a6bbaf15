// Package middleware holds the gin middleware shared by the front and admin APIs.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/identity"
)

// Context keys set by the middleware.
const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
	ContextState     = "authzState"
	ContextResolved  = "authzResolved"
)

// SessionParser validates session tokens.
type SessionParser interface {
	ParseSession(token string) (identity.Session, error)
}

// RequireSession rejects requests without a valid bearer session token.
func RequireSession(sessions SessionParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		session, errSession := sessions.ParseSession(token)
		if errSession != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ContextUserID, session.UserID)
		c.Set(ContextUserEmail, session.Email)
		c.Next()
	}
}

// OptionalSession loads the session when a valid bearer token is present and continues otherwise.
func OptionalSession(sessions SessionParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if authHeader != "" && token != "" && token != authHeader {
			if session, errSession := sessions.ParseSession(token); errSession == nil {
				c.Set(ContextUserID, session.UserID)
				c.Set(ContextUserEmail, session.Email)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "".
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// UserEmail returns the authenticated user's email, or "".
func UserEmail(c *gin.Context) string {
	return c.GetString(ContextUserEmail)
}
