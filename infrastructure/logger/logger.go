package logger

import (
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var logger = log.New()

func init() {
	logger.Out = os.Stdout
	logger.Formatter = &log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
	logger.SetLevel(log.InfoLevel)
}

// Configure applies the format ("json" or "text") and level from configuration.
// Unknown levels keep the current one.
func Configure(format, level string) {
	switch strings.ToLower(format) {
	case "text":
		logger.Formatter = &log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		}
	default:
		logger.Formatter = &log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		}
	}
	if level == "" {
		return
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("Unknown log level, keeping current")
		return
	}
	logger.SetLevel(lvl)
}

// SetOutput redirects log output, mostly useful in tests
func SetOutput(w io.Writer) {
	logger.Out = w
}

func GetLogger() *log.Entry {
	function, file, line, _ := runtime.Caller(1)

	name := ""
	if functionObject := runtime.FuncForPC(function); functionObject != nil {
		name = functionObject.Name()
	}
	return logger.WithFields(log.Fields{
		"function": name,
		"file":     file,
		"line":     line,
	})
}
