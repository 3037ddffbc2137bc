// Package logging configures the global log/slog default logger for
// cmd/pk2cli, matching the teacher's tint-plus-slog-multi setup: a colorized
// console handler fanned out to an optional JSON file handler. Unlike the
// teacher, every record here carries the archive being operated on, since a
// pk2cli invocation is always scoped to exactly one archive and a log line
// with no archive attribute is useless once log-output-dir accumulates
// files from repeated extract/pack/repack runs against different archives.
// The core packages never log on their own behalf; they optionally accept
// an engine.Logger the CLI wires from this default logger.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

// Setup configures the global slog logger for operating on archivePath. If
// logOutputDir is non-empty, logs are written to both stdout and a
// timestamped, archive-named file in that directory; every record on the
// resulting logger is tagged with an "archive" attribute so multiple runs'
// files in the same log-output-dir stay attributable after the fact.
func Setup(levelStr, logOutputDir, archivePath string) error {
	level := parseLogLevel(levelStr)

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{Level: level})

	archiveName := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
	if archiveName == "" || archiveName == "." {
		archiveName = "unknown"
	}

	var handler slog.Handler = consoleHandler
	if logOutputDir != "" {
		logDir := os.ExpandEnv(logOutputDir)

		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log output directory: %w", err)
		}

		timestamp := time.Now().Format("20060102_150405")
		logFileName := fmt.Sprintf("pk2cli_%s_%s.log", archiveName, timestamp)
		logFilePath := filepath.Join(logDir, logFileName)

		logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}

		fileHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level})
		handler = slogmulti.Fanout(consoleHandler, fileHandler)

		fmt.Fprintf(os.Stderr, "Logging to file: %s\n", logFilePath)
	}

	slog.SetDefault(slog.New(handler).With(slog.String("archive", archiveName)))
	return nil
}

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
