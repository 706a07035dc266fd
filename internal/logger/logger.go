// Package logger builds the service's zap logger and the field helpers
// shared by its components.
package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field keys used across the service. The sentry core promotes them to tags.
const (
	KeyRequestID = "request_id"
	KeyVideoID   = "video_id"
	KeyPath      = "path"
)

// Config holds logger configuration.
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // json, console
	Output  string // stdout, stderr, or file path
	Service string // added to every entry
}

// SentryConfig holds Sentry configuration.
type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

// Logger is the process logger. Components receive the embedded *zap.Logger.
type Logger struct {
	*zap.Logger
	sentryEnabled bool
}

// New creates the process logger. Error entries are also reported to Sentry
// when it is enabled.
func New(cfg Config, sentryCfg SentryConfig) (*Logger, error) {
	sentryOn := sentryCfg.Enabled && sentryCfg.DSN != ""
	if sentryOn {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryCfg.DSN,
			Environment:      sentryCfg.Environment,
			SampleRate:       sentryCfg.SampleRate,
			AttachStacktrace: true,
		}); err != nil {
			return nil, fmt.Errorf("initializing sentry: %w", err)
		}
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	output, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), output, level)
	if sentryOn {
		core = zapcore.NewTee(core, newSentryCore(sentry.CaptureEvent))
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}

	return &Logger{
		Logger:        zap.New(core, opts...),
		sentryEnabled: sentryOn,
	}, nil
}

// Sync flushes buffered entries and pending Sentry events.
func (l *Logger) Sync() error {
	if l.sentryEnabled {
		sentry.Flush(2 * time.Second)
	}

	return l.Logger.Sync()
}

// RequestID tags an entry with the id assigned to the HTTP request.
func RequestID(id string) zap.Field {
	return zap.String(KeyRequestID, id)
}

// VideoID tags an entry with the video it concerns.
func VideoID(id string) zap.Field {
	return zap.String(KeyVideoID, id)
}

// Path tags an entry with the request path.
func Path(p string) zap.Field {
	return zap.String(KeyPath, p)
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if format == "console" {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

		return zapcore.NewConsoleEncoder(cfg)
	}

	return zapcore.NewJSONEncoder(cfg)
}

func openOutput(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "stdout", "":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	return zapcore.AddSync(file), nil
}
