package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebastian05-bossu/1337loader/internal/config"
	"github.com/sebastian05-bossu/1337loader/internal/db"
	"github.com/sebastian05-bossu/1337loader/internal/models"
	internalsettings "github.com/sebastian05-bossu/1337loader/internal/settings"
)

func TestBuildDSN(t *testing.T) {
	dsn, err := BuildDSN(InitRequest{
		DatabaseType:     "postgres",
		DatabaseHost:     "db.internal",
		DatabasePort:     5433,
		DatabaseUser:     "portal",
		DatabasePassword: "pw",
		DatabaseName:     "portal",
	})
	if err != nil {
		t.Fatalf("BuildDSN postgres: %v", err)
	}
	if dsn != "postgres://portal:pw@db.internal:5433/portal?sslmode=disable" {
		t.Fatalf("unexpected postgres dsn %q", dsn)
	}

	dsn, err = BuildDSN(InitRequest{DatabaseType: "sqlite", DatabasePath: "data/portal.db"})
	if err != nil {
		t.Fatalf("BuildDSN sqlite: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:data/portal.db?") || !db.IsSQLiteDSN(dsn) {
		t.Fatalf("unexpected sqlite dsn %q", dsn)
	}

	if _, err = BuildDSN(InitRequest{DatabaseType: "oracle"}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
}

func TestValidateInitRequest(t *testing.T) {
	req := InitRequest{}
	if err := validateInitRequest(&req); err != nil {
		t.Fatalf("validate defaults: %v", err)
	}
	if req.DatabaseType != "sqlite" || req.DatabasePath != defaultSQLitePath || req.SiteName != internalsettings.DefaultSiteName {
		t.Fatalf("unexpected defaults: %+v", req)
	}

	pg := InitRequest{DatabaseType: "postgres", DatabaseUser: "u", DatabaseName: "n"}
	if err := validateInitRequest(&pg); err == nil {
		t.Fatalf("expected missing host error")
	}
}

func TestInitConfigWritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	cfg := config.AppConfig{ConfigPath: configPath}
	req := InitRequest{
		DatabaseType: "sqlite",
		DatabasePath: filepath.Join(dir, "portal.db"),
		SiteName:     "Leet",
		DownloadURL:  "https://downloads.example.com/client.zip",
	}

	if err := InitConfig(context.Background(), cfg, req, 9000); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}
	if err := InitConfig(context.Background(), cfg, req, 9000); !errors.Is(err, ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}

	serverCfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if serverCfg.Port != 9000 || serverCfg.DownloadURL != req.DownloadURL {
		t.Fatalf("unexpected server config: %+v", serverCfg)
	}
	jwtCfg, err := config.LoadJWTConfig(configPath)
	if err != nil {
		t.Fatalf("LoadJWTConfig: %v", err)
	}
	if jwtCfg.Secret == "" || jwtCfg.Expiry.Hours() != 168 {
		t.Fatalf("unexpected jwt config: %+v", jwtCfg)
	}

	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		t.Fatalf("LoadDatabaseDSN: %v", err)
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	var setting models.Setting
	if errFind := conn.Where("key = ?", internalsettings.SiteNameKey).First(&setting).Error; errFind != nil {
		t.Fatalf("find site name: %v", errFind)
	}
	if name, ok := internalsettings.ParseString([]byte(setting.Value)); !ok || name != "Leet" {
		t.Fatalf("expected site name Leet, got %s", string(setting.Value))
	}
}
