package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tinyland-inc/bridgeclaw/pkg/config"
)

// New builds the application logger from the logger configuration block.
// Output goes to a size-rotated <appName>.log file and, when console is
// enabled, to stdout as well.
func New(appName string, cfg config.LoggerConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		if strings.EqualFold(cfg.Format, "json") {
			writers = append(writers, os.Stdout)
		} else {
			console := zerolog.ConsoleWriter{Out: os.Stdout}
			if cfg.DateFormat != "" {
				console.TimeFormat = cfg.DateFormat
			}
			writers = append(writers, console)
		}
	}

	writers = append(writers, &lumberjack.Logger{
		Filename:   appName + ".log",
		MaxSize:    maxSizeMB(cfg.FileMaxBytes),
		MaxBackups: cfg.FileBackupCount,
	})

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("app", appName).
		Logger()
}

// ParseLevel maps a configured level string to a zerolog level, defaulting
// to info on anything unrecognized.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// maxSizeMB converts the configured byte limit to lumberjack's megabyte
// unit, never below 1.
func maxSizeMB(bytes int) int {
	mb := bytes / (1024 * 1024)
	if mb < 1 {
		return 1
	}
	return mb
}
