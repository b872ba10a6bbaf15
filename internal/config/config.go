package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
	EnvDownloadURL  = "DOWNLOAD_URL"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 7 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file. A missing file yields defaults.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead != nil && !os.IsNotExist(errRead) {
		return JWTConfig{}, fmt.Errorf("read config file: %w", errRead)
	}
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return JWTConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
		result = cfg.JWT
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}

// RedeemConfig tunes the license activation retry policy.
type RedeemConfig struct {
	LicenseAttempts int           `yaml:"license-attempts"` // In-call attempts of the license write.
	LicenseBackoff  time.Duration `yaml:"license-backoff"`  // Delay between license write attempts.
	RetryAttempts   int           `yaml:"retry-attempts"`   // Caller attempts on activation pending.
	RetryBackoff    time.Duration `yaml:"retry-backoff"`    // Initial caller backoff, doubled per attempt.
}

// ServerConfig holds HTTP server and runtime options from the config file.
type ServerConfig struct {
	Host          string       `yaml:"host"`
	Port          int          `yaml:"port"`
	Debug         bool         `yaml:"debug"`
	LoggingToFile bool         `yaml:"logging-to-file"`
	LogDir        string       `yaml:"log-dir"`
	DownloadURL   string       `yaml:"download-url"`
	Redeem        RedeemConfig `yaml:"redeem"`
}

// Default values applied by LoadServerConfig.
const (
	defaultLicenseAttempts = 3
	defaultLicenseBackoff  = 50 * time.Millisecond
	defaultRetryAttempts   = 3
	defaultRetryBackoff    = 200 * time.Millisecond
	defaultLogDir          = "logs"
)

// LoadServerConfig loads server options from the YAML config file. A missing file yields defaults.
func LoadServerConfig(configPath string) (ServerConfig, error) {
	var cfg ServerConfig

	data, errRead := os.ReadFile(configPath)
	if errRead != nil && !os.IsNotExist(errRead) {
		return ServerConfig{}, fmt.Errorf("read config file: %w", errRead)
	}
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return ServerConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	}

	if downloadURL := strings.TrimSpace(os.Getenv(EnvDownloadURL)); downloadURL != "" {
		cfg.DownloadURL = downloadURL
	}
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.DownloadURL = strings.TrimSpace(cfg.DownloadURL)
	if strings.TrimSpace(cfg.LogDir) == "" {
		cfg.LogDir = defaultLogDir
	}
	if cfg.Redeem.LicenseAttempts <= 0 {
		cfg.Redeem.LicenseAttempts = defaultLicenseAttempts
	}
	if cfg.Redeem.LicenseBackoff <= 0 {
		cfg.Redeem.LicenseBackoff = defaultLicenseBackoff
	}
	if cfg.Redeem.RetryAttempts <= 0 {
		cfg.Redeem.RetryAttempts = defaultRetryAttempts
	}
	if cfg.Redeem.RetryBackoff <= 0 {
		cfg.Redeem.RetryBackoff = defaultRetryBackoff
	}
	return cfg, nil
}
