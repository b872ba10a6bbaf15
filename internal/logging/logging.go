// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sebastian05-bossu/1337loader/internal/config"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logFileName is the active log file inside the log directory.
const logFileName = "portal.log"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup applies level, formatter and output from cfg. The returned closer releases the log file.
func Setup(cfg config.ServerConfig) (io.Closer, error) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if !cfg.LoggingToFile {
		log.SetOutput(os.Stdout)
		return nopCloser{}, nil
	}

	dir := strings.TrimSpace(cfg.LogDir)
	if dir == "" {
		dir = "logs"
	}
	if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
		return nil, fmt.Errorf("logging: create log dir: %w", errMkdir)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	log.SetOutput(rotator)
	return rotator, nil
}
