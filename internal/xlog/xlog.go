// Package xlog provides the cache's structured logging, adapted from the
// teacher repository's logger package: a logrus.Logger with a custom
// single-line formatter and package-level helpers. The legacy
// compatibility shims (Notice, WriteNoticeLog, CheckError, Log, LogErr)
// that existed only for the teacher's old call sites are dropped.
package xlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the package-wide logrus instance. It is safe to use before
// Init is called: logrus.New()'s defaults (info level, stderr output)
// apply until Init reconfigures it.
var Logger = logrus.New()

func init() {
	Logger.SetFormatter(&singleLineFormatter{})
}

// Config controls where log output goes and at what level.
type Config struct {
	OutputPath string // empty means stderr
	Level      string // "debug", "info", "warn", "error"; default "info"
}

// Init reconfigures the package logger. Safe to call more than once.
func Init(cfg Config) error {
	Logger.SetLevel(parseLevel(cfg.Level))
	if cfg.OutputPath == "" {
		Logger.SetOutput(os.Stderr)
		return nil
	}
	f, err := openLogFile(cfg.OutputPath)
	if err != nil {
		Logger.SetOutput(os.Stderr)
		Logger.Warnf("failed to open log file %s, falling back to stderr: %v", cfg.OutputPath, err)
		return nil
	}
	Logger.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "":
		return logrus.InfoLevel
	default:
		return logrus.InfoLevel
	}
}

// singleLineFormatter renders "[time] [LEVEL] (file:line) message", with
// LEVEL cut to its first four letters. The function name is not included.
type singleLineFormatter struct{}

func (f *singleLineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("15:04:05 2006/01/02")
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	return []byte(fmt.Sprintf("[%s] [%s] (%s) %s\n", timestamp, level, caller(), entry.Message)), nil
}

// caller walks the stack past logrus and this package to find the first
// frame that belongs to a caller of xlog.
func caller() string {
	for i := 2; i < 20; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if strings.Contains(file, "/logrus/") || strings.Contains(file, "sirupsen") ||
			strings.Contains(file, "internal/xlog/xlog.go") {
			continue
		}
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return "unknown:0"
}

func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }
