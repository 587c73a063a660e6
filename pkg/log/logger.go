// Package log provides structured slog logging for the analysis pipeline,
// with cockroachdb/errors stack traces surfaced as a log attribute and a
// zerolog bridge for the warning channel in pkg/errors.
package log

import (
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	"github.com/iman-ch/heart-failure-risk-prediction/pkg/errors"
)

// SetupLogger installs the default slog logger for the run.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))

	// Route pipeline warnings (undefined metrics, degenerate folds) through
	// zerolog so their structured fields survive.
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(func(warning error) {
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			zl.Warn().EmbedObject(obj).Msg(warning.Error())
			return
		}
		zl.Warn().Msg(warning.Error())
	})
}

// ToLogLevel converts a level name to a slog.Level. An unknown name falls
// back to info rather than aborting the run over a flag typo.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
