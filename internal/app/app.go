package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sebastian05-bossu/1337loader/internal/adminops"
	"github.com/sebastian05-bossu/1337loader/internal/authz"
	"github.com/sebastian05-bossu/1337loader/internal/config"
	"github.com/sebastian05-bossu/1337loader/internal/db"
	"github.com/sebastian05-bossu/1337loader/internal/http/api/admin"
	"github.com/sebastian05-bossu/1337loader/internal/http/api/front"
	"github.com/sebastian05-bossu/1337loader/internal/http/middleware"
	"github.com/sebastian05-bossu/1337loader/internal/identity"
	"github.com/sebastian05-bossu/1337loader/internal/logging"
	"github.com/sebastian05-bossu/1337loader/internal/ratelimit"
	"github.com/sebastian05-bossu/1337loader/internal/redeem"
	internalsettings "github.com/sebastian05-bossu/1337loader/internal/settings"
	"github.com/sebastian05-bossu/1337loader/internal/store"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultPort is used when neither the flag nor the config file sets a port.
const DefaultPort = 8318

const shutdownTimeout = 5 * time.Second

// ErrUnknownEmail indicates a role grant for an email with no profile.
var ErrUnknownEmail = errors.New("app: no profile with that email")

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	conn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	return db.Migrate(conn.WithContext(ctx))
}

// GrantRole grants the admin role, optionally as owner, to the profile registered with email.
func GrantRole(ctx context.Context, cfg config.AppConfig, email string, isOwner bool) error {
	conn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	return grantRoleWithConn(ctx, conn, email, isOwner)
}

func grantRoleWithConn(ctx context.Context, conn *gorm.DB, email string, isOwner bool) error {
	normalized, errEmail := identity.NormalizeEmail(email)
	if errEmail != nil {
		return fmt.Errorf("app: grant role: %w", errEmail)
	}
	s := store.NewGormStore(conn)
	profile, errFind := s.GetProfileByEmail(ctx, normalized)
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownEmail, normalized)
		}
		return errFind
	}
	if errGrant := s.GrantAdmin(ctx, profile.ID, isOwner); errGrant != nil {
		return errGrant
	}
	log.WithFields(log.Fields{"user_id": profile.ID, "email": normalized, "owner": isOwner}).Info("admin role granted")
	return nil
}

// Services bundles the components behind the HTTP surface.
type Services struct {
	DB          *gorm.DB
	Store       *store.GormStore
	Identity    *identity.Service
	Resolver    *authz.Resolver
	Redeemer    *redeem.Redeemer
	AdminOps    *adminops.Service
	Limiter     *ratelimit.Manager
	Retry       redeem.RetryPolicy
	DownloadURL string
}

// NewServices builds the services over an open, migrated connection.
func NewServices(conn *gorm.DB, jwtCfg config.JWTConfig, serverCfg config.ServerConfig) *Services {
	s := store.NewGormStore(conn)
	resolver := authz.NewResolver(s)
	return &Services{
		DB:       conn,
		Store:    s,
		Identity: identity.NewService(conn, jwtCfg),
		Resolver: resolver,
		Redeemer: redeem.NewRedeemer(s, redeem.Options{
			LicenseAttempts: serverCfg.Redeem.LicenseAttempts,
			LicenseBackoff:  serverCfg.Redeem.LicenseBackoff,
		}),
		AdminOps: adminops.NewService(s, resolver),
		Limiter:  ratelimit.NewManager(nil, nil, nil),
		Retry: redeem.RetryPolicy{
			Attempts: serverCfg.Redeem.RetryAttempts,
			Backoff:  serverCfg.Redeem.RetryBackoff,
		},
		DownloadURL: serverCfg.DownloadURL,
	}
}

// NewEngine builds the gin engine with all routes registered.
func NewEngine(svc *Services) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())

	admin.RegisterAdminRoutes(engine, svc.DB, svc.Identity, svc.Resolver, svc.AdminOps)
	front.RegisterFrontRoutes(engine, front.Deps{
		Identity:    svc.Identity,
		Resolver:    svc.Resolver,
		Redeemer:    svc.Redeemer,
		Store:       svc.Store,
		Limiter:     svc.Limiter,
		Retry:       svc.Retry,
		DownloadURL: svc.DownloadURL,
	})

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

// RunServer boots the portal API with database-backed components and blocks until ctx is done.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	serverCfg, errServerCfg := config.LoadServerConfig(configPath)
	if errServerCfg != nil {
		return errServerCfg
	}
	logCloser, errLogging := logging.Setup(serverCfg)
	if errLogging != nil {
		return errLogging
	}
	defer func() {
		if errClose := logCloser.Close(); errClose != nil {
			log.Errorf("close log output: %v", errClose)
		}
	}()
	if serverCfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if info, errInfo := describeDSN(dsn); errInfo == nil {
		log.Infof("database ready (%s)", info)
	}

	if errRefresh := internalsettings.Refresh(ctx, conn); errRefresh != nil {
		return errRefresh
	}
	internalsettings.NewSyncer(conn, 0).Start(ctx)

	jwtCfg, errJWTCfg := config.LoadJWTConfig(configPath)
	if errJWTCfg != nil {
		return errJWTCfg
	}
	if strings.TrimSpace(jwtCfg.Secret) == "" {
		jwtCfg.Secret = generateJWTSecret()
		log.Warn("jwt secret not configured; using an ephemeral secret, sessions end on restart")
	}

	if owned, errOwner := HasOwnerInitialized(ctx, conn); errOwner != nil {
		log.WithError(errOwner).Warn("check owner grant failed")
	} else if !owned {
		log.Warn("no owner granted yet; register an account and run with -grant-owner <email>")
	}

	svc := NewServices(conn, jwtCfg, serverCfg)
	defer func() {
		if errClose := svc.Limiter.Close(); errClose != nil {
			log.Errorf("close rate limiter: %v", errClose)
		}
	}()

	port := serverCfg.Port
	if port <= 0 {
		port = defaultPort
	}
	if port <= 0 {
		port = DefaultPort
	}
	addr := fmt.Sprintf("%s:%d", serverCfg.Host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewEngine(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.Errorf("server shutdown error: %v", errShutdown)
		}
	}()

	log.Infof("starting portal on %s with config=%s", addr, configPath)
	if errListen := srv.ListenAndServe(); errListen != nil && !errors.Is(errListen, http.ErrServerClosed) {
		return errListen
	}
	log.Info("portal stopped")
	return nil
}

func openDatabase(cfg config.AppConfig) (*gorm.DB, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return nil, err
	}
	return db.Open(dsn)
}
