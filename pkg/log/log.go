// Package log builds the process logger from configuration.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tricox-dev/tricox/pkg/config"
)

// NewLogger returns a new logger configured from cfg. When a log file is
// configured, the returned closer must be closed by the caller.
func NewLogger(cfg *config.Config) (*log.Logger, io.Closer, error) {
	if cfg == nil {
		return nil, nil, config.ErrNilConfig
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})

	switch {
	case config.IsVerbose():
		logger.SetReportCaller(true)
		fallthrough
	case config.IsDebug():
		logger.SetLevel(log.DebugLevel)
	}

	if cfg.Log.TimeFormat != "" {
		logger.SetTimeFormat(cfg.Log.TimeFormat)
	}

	logger.SetFormatter(formatter(cfg.Log.Format))

	if cfg.Log.Path == "" {
		return logger, nopCloser{}, nil
	}

	f, err := os.OpenFile(cfg.Log.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}
	logger.SetOutput(f)

	return logger, f, nil
}

func formatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
