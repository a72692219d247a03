package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ParseLevel maps a settings log level (case insensitive) to a logrus level.
// "none", "off" and "" map to PanicLevel, which SetupLogging treats as off.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	case "", "none", "off":
		return logrus.PanicLevel, nil
	default:
		return logrus.PanicLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// SetupLogging points logrus at out with the given level, or discards all
// output when the level is none.
func SetupLogging(level string, out io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if lvl == logrus.PanicLevel {
		logrus.SetOutput(io.Discard)
		return nil
	}
	logrus.SetOutput(out)
	logrus.SetLevel(lvl)
	return nil
}
