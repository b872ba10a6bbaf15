package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sebastian05-bossu/1337loader/internal/app"
	"github.com/sebastian05-bossu/1337loader/internal/config"

	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if errRun := run(ctx, os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, loads config, and runs the requested command.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("portal", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	port := fs.Int("port", app.DefaultPort, "server port (used when the config file sets none, and for -init)")
	grantOwner := fs.String("grant-owner", "", "grant the owner role to the account with this email and exit")
	grantAdmin := fs.String("grant-admin", "", "grant the admin role to the account with this email and exit")
	migrateOnly := fs.Bool("migrate", false, "run database migrations and exit")
	initConfig := fs.Bool("init", false, "write a new config file and exit")
	dbType := fs.String("db-type", "sqlite", "database type for -init (sqlite or postgres)")
	dbPath := fs.String("db-path", "", "sqlite database path for -init")
	dbHost := fs.String("db-host", "", "postgres host for -init")
	dbPort := fs.Int("db-port", 5432, "postgres port for -init")
	dbUser := fs.String("db-user", "", "postgres user for -init")
	dbPassword := fs.String("db-password", "", "postgres password for -init")
	dbName := fs.String("db-name", "", "postgres database name for -init")
	dbSSLMode := fs.String("db-sslmode", "", "postgres sslmode for -init")
	siteName := fs.String("site-name", "", "site name for -init")
	downloadURL := fs.String("download-url", "", "client download URL for -init")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	if errValidate := validatePort(*port); errValidate != nil {
		return errValidate
	}
	if strings.TrimSpace(*grantOwner) != "" && strings.TrimSpace(*grantAdmin) != "" {
		return fmt.Errorf("use only one of -grant-owner and -grant-admin")
	}

	appCfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if strings.TrimSpace(*cfgPath) != "" {
		appCfg.ConfigPath = config.ResolveConfigPath(*cfgPath)
	}

	switch {
	case *initConfig:
		return app.InitConfig(ctx, appCfg, app.InitRequest{
			DatabaseType:     *dbType,
			DatabaseHost:     *dbHost,
			DatabasePort:     *dbPort,
			DatabaseUser:     *dbUser,
			DatabasePassword: *dbPassword,
			DatabaseName:     *dbName,
			DatabasePath:     *dbPath,
			DatabaseSSLMode:  *dbSSLMode,
			SiteName:         *siteName,
			DownloadURL:      *downloadURL,
		}, *port)
	case *migrateOnly:
		return app.Migrate(ctx, appCfg)
	case strings.TrimSpace(*grantOwner) != "":
		return app.GrantRole(ctx, appCfg, *grantOwner, true)
	case strings.TrimSpace(*grantAdmin) != "":
		return app.GrantRole(ctx, appCfg, *grantAdmin, false)
	}

	configPath := config.ResolveConfigPath(appCfg.ConfigPath)
	if !app.ConfigExists(configPath) && strings.TrimSpace(os.Getenv(config.EnvDBConnection)) == "" {
		return errors.New("config file not found at " + configPath + "; run with -init or set " + config.EnvDBConnection)
	}
	return app.RunServer(ctx, appCfg, *port)
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
