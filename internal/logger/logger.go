package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"thriftstore/internal/config"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// Tests never go through main, so the package sets up a default logger
// on import.
func init() {
	InitLogger("thriftstore", config.LoggingConfig{Level: "info", Format: "text"})
}

// InitLogger replaces the global logger. service is attached to every entry.
func InitLogger(service string, cfg config.LoggingConfig) {
	logger = logrus.New()

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetOutput(outputFor(cfg.OutputPath))

	Log = logger.WithFields(logrus.Fields{"service": service})
}

func outputFor(path string) io.Writer {
	switch path {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stderr
	}
	return f
}
