package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/authz"
	"github.com/sebastian05-bossu/1337loader/internal/http/middleware"
	"github.com/sebastian05-bossu/1337loader/internal/identity"
	"github.com/sebastian05-bossu/1337loader/internal/ratelimit"
	log "github.com/sirupsen/logrus"
)

// AuthHandler serves registration, sign-in and session endpoints.
type AuthHandler struct {
	identity *identity.Service
	resolver middleware.StateResolver
	limiter  *ratelimit.Manager
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(identitySvc *identity.Service, resolver middleware.StateResolver, limiter *ratelimit.Manager) *AuthHandler {
	return &AuthHandler{identity: identitySvc, resolver: resolver, limiter: limiter}
}

// credentialsRequest is the payload for register and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

// Register creates an account.
func (h *AuthHandler) Register(c *gin.Context) {
	var body credentialsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	profile, errRegister := h.identity.Register(c.Request.Context(), body.Email, body.Password)
	if errRegister != nil {
		switch {
		case errors.Is(errRegister, identity.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		case errors.Is(errRegister, identity.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
		case errors.Is(errRegister, identity.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		default:
			log.WithError(errRegister).Error("register failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user_id":    profile.ID,
		"email":      profile.Email,
		"created_at": profile.CreatedAt,
	})
}

// Login signs a user in and returns a session token with the resolved state.
func (h *AuthHandler) Login(c *gin.Context) {
	var body credentialsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	result, errLimit := h.limiter.Check(c.Request.Context(), ratelimit.ScopeLogin, body.Email)
	if errLimit == nil && !result.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts", "code": "rate_limited", "reset_at": result.Reset})
		return
	}

	session, errSignIn := h.identity.SignIn(c.Request.Context(), body.Email, body.Password, body.TOTPCode)
	if errSignIn != nil {
		switch {
		case errors.Is(errSignIn, identity.ErrTOTPRequired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "totp code required", "code": "totp_required"})
		case errors.Is(errSignIn, identity.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		default:
			log.WithError(errSignIn).Error("login failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse(c, session))
}

// Refresh exchanges the current session token for a new one.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	session, errRefresh := h.identity.Refresh(c.Request.Context(), token)
	if errRefresh != nil {
		if errors.Is(errRefresh, identity.ErrInvalidSession) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		log.WithError(errRefresh).Error("session refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse(c, session))
}

// Logout ends the session. Tokens are stateless, so the client discards its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Session returns the current user with a freshly resolved state.
func (h *AuthHandler) Session(c *gin.Context) {
	userID := middleware.UserID(c)
	state, errResolve := h.resolver.Resolve(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"email":    middleware.UserEmail(c),
		"state":    state,
		"resolved": errResolve == nil,
	})
}

// resetRequest is the payload for password reset requests.
type resetRequest struct {
	Email string `json:"email"`
}

// RequestReset issues a password reset token. The response never reveals whether the email exists.
func (h *AuthHandler) RequestReset(c *gin.Context) {
	var body resetRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	token, errReset := h.identity.RequestPasswordReset(c.Request.Context(), body.Email)
	if errReset != nil {
		log.WithError(errReset).Error("password reset request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset request failed"})
		return
	}
	if token != "" {
		// Delivery is out of band. The token itself is only written at debug level.
		entry := log.WithField("email", strings.ToLower(strings.TrimSpace(body.Email)))
		entry.Info("password reset token issued")
		entry.Debugf("password reset token: %s", token)
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// resetPasswordRequest is the payload for completing a password reset.
type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword consumes a reset token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var body resetPasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if errReset := h.identity.ResetPassword(c.Request.Context(), body.Token, body.Password); errReset != nil {
		switch {
		case errors.Is(errReset, identity.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
		case errors.Is(errReset, identity.ErrInvalidResetToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired reset token"})
		default:
			log.WithError(errReset).Error("password reset failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// sessionResponse resolves the new session's user so the client re-evaluates access on every transition.
func (h *AuthHandler) sessionResponse(c *gin.Context, session identity.Session) gin.H {
	state, errResolve := h.resolver.Resolve(c.Request.Context(), session.UserID)
	if errResolve != nil {
		state = authz.Restrictive()
	}
	return gin.H{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user_id":    session.UserID,
		"email":      session.Email,
		"state":      state,
		"resolved":   errResolve == nil,
	}
}
