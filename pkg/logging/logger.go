package logging

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// LOG_FORMAT=json selects plain JSON lines, anything else the colored
// formatter.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		formatter := NewColoredJSONFormatter()
		formatter.DisableColors = !isatty.IsTerminal(os.Stdout.Fd())
		logger.SetFormatter(formatter)
	}

	return logger
}
