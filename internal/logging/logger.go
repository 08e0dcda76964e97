// Package logging builds the application logger.
package logging

import (
	"github.com/sirupsen/logrus"
)

// New creates a JSON-formatted logger at the given level. Unknown level
// strings fall back to info rather than failing startup.
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
