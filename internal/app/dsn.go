package app

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sebastian05-bossu/1337loader/internal/db"
)

// dsnInfo is the password-free description of a database DSN.
type dsnInfo struct {
	DatabaseType        string
	DatabaseHost        string
	DatabasePort        int
	DatabaseUser        string
	DatabaseName        string
	DatabaseSSLMode     string
	DatabasePath        string
	DatabasePasswordSet bool
}

// String renders the description for startup logs.
func (d dsnInfo) String() string {
	if d.DatabaseType == "sqlite" {
		return fmt.Sprintf("type=sqlite path=%s", d.DatabasePath)
	}
	return fmt.Sprintf("type=%s host=%s port=%d user=%s name=%s sslmode=%s password_set=%t",
		d.DatabaseType, d.DatabaseHost, d.DatabasePort, d.DatabaseUser, d.DatabaseName, d.DatabaseSSLMode, d.DatabasePasswordSet)
}

func describeDSN(dsn string) (dsnInfo, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return dsnInfo{}, fmt.Errorf("empty dsn")
	}

	if db.IsSQLiteDSN(trimmed) {
		pathPart := trimmed
		if strings.HasPrefix(strings.ToLower(pathPart), "file:") {
			pathPart = pathPart[len("file:"):]
		}
		pathPart, _, _ = strings.Cut(pathPart, "?")
		return dsnInfo{
			DatabaseType: "sqlite",
			DatabasePath: strings.TrimSpace(pathPart),
		}, nil
	}
	if !strings.Contains(trimmed, "://") {
		return dsnInfo{}, fmt.Errorf("unsupported dsn format")
	}

	u, errParse := url.Parse(trimmed)
	if errParse != nil {
		return dsnInfo{}, fmt.Errorf("parse dsn: %w", errParse)
	}

	switch strings.ToLower(strings.TrimSpace(u.Scheme)) {
	case "postgres", "postgresql":
		port := 5432
		if rawPort := strings.TrimSpace(u.Port()); rawPort != "" {
			parsedPort, errPort := strconv.Atoi(rawPort)
			if errPort != nil {
				return dsnInfo{}, fmt.Errorf("parse port: %w", errPort)
			}
			port = parsedPort
		}

		username := ""
		passwordSet := false
		if u.User != nil {
			username = strings.TrimSpace(u.User.Username())
			_, passwordSet = u.User.Password()
		}

		sslMode := strings.TrimSpace(u.Query().Get("sslmode"))
		if sslMode == "" {
			sslMode = "disable"
		}

		return dsnInfo{
			DatabaseType:        "postgres",
			DatabaseHost:        strings.TrimSpace(u.Hostname()),
			DatabasePort:        port,
			DatabaseUser:        username,
			DatabaseName:        strings.TrimSpace(strings.TrimPrefix(u.Path, "/")),
			DatabaseSSLMode:     sslMode,
			DatabasePasswordSet: passwordSet,
		}, nil
	default:
		return dsnInfo{}, fmt.Errorf("unsupported dsn scheme")
	}
}
