package log

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

const (
	// LevelEnv selects the log level: error, warn, debug or info (default).
	LevelEnv = "SB_LOGLEVEL"
	// FormatEnv switches to JSON lines when set to "json".
	FormatEnv = "SB_LOGFORMAT"
)

var log = logrus.New()

func init() {
	log.Formatter = formatter(os.Getenv(FormatEnv))
}

func formatter(kind string) logrus.Formatter {
	if strings.EqualFold(kind, "json") {
		return &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"}
	}
	f := new(prefixed.TextFormatter)
	f.TimestampFormat = `Jan 02 15:04:05`
	f.FullTimestamp = true
	return f
}

func level(name string) logrus.Level {
	switch strings.ToLower(name) {
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "debug":
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

// Get returns the shared logger with its level refreshed from the environment.
func Get() *logrus.Logger {
	log.SetLevel(level(os.Getenv(LevelEnv)))
	return log
}

// SetLogger replaces the shared logger, e.g. with one writing to a test buffer.
func SetLogger(logger *logrus.Logger) {
	log = logger
}
