// Package logger wraps zerolog behind the small surface the rest of
// the codebase logs through.
// SSOT: zerolog is imported here and nowhere else.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/pesowatch/pkg/config"
)

// Logger carries a configured zerolog.Logger. Copies share the output
// but own their field context, so With* chains never leak fields back
// into the parent.
type Logger struct {
	zlog zerolog.Logger
}

// New builds a logger from config: console or JSON output, level from
// LOG_LEVEL. The level is attached to this instance rather than set
// globally, so two loggers in one process (tests, mostly) cannot
// fight over it.
func New(cfg *config.Config) *Logger {
	zlog := zerolog.New(newWriter(cfg)).
		Level(parseLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("service", "pesowatch").
		Str("env", cfg.Env).
		Logger()

	return &Logger{zlog: zlog}
}

// newWriter picks the output encoding. Anything that is not console
// or pretty is JSON on stdout, the production default.
func newWriter(cfg *config.Config) io.Writer {
	switch cfg.LogFormat {
	case "console", "pretty":
		return zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	default:
		return os.Stdout
	}
}

// parseLevel maps a LOG_LEVEL string to a zerolog level, defaulting
// to info on anything unrecognized.
func parseLevel(level string) zerolog.Level {
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

// WithField returns a child logger carrying one extra field. The
// codebase convention is WithField("module", ...) per package and
// WithField("job", ...) per scheduler job.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a child logger carrying several extra fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithError returns a child logger carrying the error under the
// standard "error" key.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// Fatal logs the message and exits the process.
func (l *Logger) Fatal(msg string) { l.zlog.Fatal().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Fatalf logs the formatted message and exits the process.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.zlog.Fatal().Msgf(format, args...)
}
