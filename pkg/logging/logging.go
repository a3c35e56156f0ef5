package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

func newLogger(level logrus.Level, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log
}

// ConsoleLogger writes to stderr so command output on stdout stays machine readable.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	return newLogger(level, os.Stderr)
}

// FileLogger appends JSON log lines to logPath, creating parent directories as needed.
// The caller owns the returned file and must close it.
func FileLogger(level logrus.Level, logPath string) (*os.File, *logrus.Logger, error) {
	if dir := filepath.Dir(logPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	log := newLogger(level, f)
	log.SetFormatter(&logrus.JSONFormatter{})
	return f, log, nil
}

// Discard is handy for tests and for callers that did not configure logging.
func Discard() *logrus.Logger {
	return newLogger(logrus.PanicLevel, io.Discard)
}
