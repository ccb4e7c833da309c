// Package logging builds the application logger from configuration.
package logging

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tumorboard/tumorboard/internal/domain"
)

// NewLogger creates a logrus logger configured per the logging section.
// Unrecognized levels fall back to info; unrecognized formats to text.
func NewLogger(config domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(config.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
