// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"cryptoproxy/internal/config"
)

// New returns a logrus logger writing to out at the configured level and format.
func New(cfg config.Logging, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
	}
	return logger, nil
}
