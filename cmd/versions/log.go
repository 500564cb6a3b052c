package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/openshift-assisted/versions-management/internal/envconf"
)

const (
	flagLogLevel  = "loglevel"
	flagLogFormat = "logformat"
)

func registerLoggingFlags(cmd *cobra.Command) {
	enumVar(cmd.PersistentFlags(), flagLogLevel, envconf.String("LOG_LEVEL", "info"),
		[]string{"debug", "info", "warn", "error"}, "set the log level (debug, info, warn, error)")
	enumVar(cmd.PersistentFlags(), flagLogFormat, envconf.String("LOG_FORMAT", "text"),
		[]string{"text", "json"}, "set the log format (text, json)")
}

// baseLogger builds the process logger from the logging flags. Logs go to stderr so
// command output on stdout stays machine readable.
func baseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := loggerLevel(cmd)
	if err != nil {
		return nil, err
	}

	format, err := enumGet(cmd.Flags(), flagLogFormat)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	case "text":
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	return slog.New(handler), nil
}

func loggerLevel(cmd *cobra.Command) (slog.Level, error) {
	logLevel, err := enumGet(cmd.Flags(), flagLogLevel)
	if err != nil {
		return slog.LevelInfo, err
	}

	switch logLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", logLevel)
	}
}
