package front

import (
	"github.com/gin-gonic/gin"
	handlers "github.com/sebastian05-bossu/1337loader/internal/http/api/front/handlers"
	"github.com/sebastian05-bossu/1337loader/internal/http/middleware"
	"github.com/sebastian05-bossu/1337loader/internal/identity"
	"github.com/sebastian05-bossu/1337loader/internal/navigation"
	"github.com/sebastian05-bossu/1337loader/internal/ratelimit"
	"github.com/sebastian05-bossu/1337loader/internal/redeem"
	"github.com/sebastian05-bossu/1337loader/internal/store"
)

// Deps groups the services the front routes depend on.
type Deps struct {
	Identity    *identity.Service
	Resolver    middleware.StateResolver
	Redeemer    redeem.Service
	Store       store.RecordStore
	Limiter     *ratelimit.Manager
	Retry       redeem.RetryPolicy
	DownloadURL string
}

// RegisterFrontRoutes registers user-facing routes, middleware, and handlers.
func RegisterFrontRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.Identity == nil || deps.Resolver == nil || deps.Store == nil {
		return
	}

	front := r.Group("/v0/front")

	siteHandler := handlers.NewSiteHandler()
	front.GET("/site", siteHandler.Info)

	authHandler := handlers.NewAuthHandler(deps.Identity, deps.Resolver, deps.Limiter)
	front.POST("/register", authHandler.Register)
	front.POST("/login", authHandler.Login)
	front.POST("/logout", authHandler.Logout)
	front.POST("/session/refresh", authHandler.Refresh)
	front.POST("/password/reset-request", authHandler.RequestReset)
	front.POST("/password/reset", authHandler.ResetPassword)

	navigationHandler := handlers.NewNavigationHandler(deps.Resolver)
	front.GET("/navigation", navigationHandler.List)
	front.GET("/navigation/:screen", middleware.OptionalSession(deps.Identity), navigationHandler.Decide)

	authed := front.Group("")
	authed.Use(middleware.RequireSession(deps.Identity))
	authed.GET("/session", authHandler.Session)

	mfaHandler := handlers.NewMFAHandler(deps.Identity)
	authed.POST("/mfa/totp/prepare", mfaHandler.PrepareTOTP)
	authed.POST("/mfa/totp/confirm", mfaHandler.ConfirmTOTP)
	authed.POST("/mfa/totp/disable", mfaHandler.DisableTOTP)

	// Gated actions re-resolve the caller on every request; banned users are turned away here.
	gated := authed.Group("")
	gated.Use(middleware.RequireAccess(deps.Resolver, navigation.LevelAuthenticated))

	licenseHandler := handlers.NewLicenseHandler(deps.Store, deps.Redeemer, deps.Limiter, deps.Retry, deps.DownloadURL)
	gated.POST("/redeem", licenseHandler.Redeem)
	gated.GET("/license", licenseHandler.Get)
	gated.GET("/download", licenseHandler.Download)
}
