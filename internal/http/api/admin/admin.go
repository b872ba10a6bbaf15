package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/adminops"
	handlers "github.com/sebastian05-bossu/1337loader/internal/http/api/admin/handlers"
	"github.com/sebastian05-bossu/1337loader/internal/http/middleware"
	"github.com/sebastian05-bossu/1337loader/internal/navigation"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers owner-only routes, middleware, and handlers.
// Every request re-resolves the caller; banned owners are refused.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, sessions middleware.SessionParser, resolver middleware.StateResolver, ops *adminops.Service) {
	if r == nil || db == nil || sessions == nil || resolver == nil || ops == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	authed := r.Group("/v0/admin")
	authed.Use(middleware.RequireSession(sessions))
	authed.Use(middleware.RequireAccess(resolver, navigation.LevelOwner))

	accessKeyHandler := handlers.NewAccessKeyHandler(ops)
	authed.POST("/access-keys", accessKeyHandler.Create)
	authed.GET("/access-keys", accessKeyHandler.List)

	userHandler := handlers.NewUserHandler(ops)
	authed.GET("/users", userHandler.List)

	banHandler := handlers.NewBanHandler(ops)
	authed.GET("/bans", banHandler.List)
	authed.POST("/bans", banHandler.Create)
	authed.DELETE("/bans/:user_id", banHandler.Delete)

	settingHandler := handlers.NewSettingHandler(db)
	authed.GET("/settings", settingHandler.List)
	authed.GET("/settings/:key", settingHandler.Get)
	authed.PUT("/settings/:key", settingHandler.Put)
}
