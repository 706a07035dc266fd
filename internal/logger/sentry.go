package logger

import (
	"fmt"
	"math"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

// tagKeys are searchable in Sentry; every other field lands in Extra.
var tagKeys = map[string]bool{
	KeyRequestID: true,
	KeyVideoID:   true,
	KeyPath:      true,
	"dataset":    true,
}

// sentryCore reports error entries to Sentry. Events are grouped by message
// so that per-video failures collapse into one issue.
type sentryCore struct {
	capture func(*sentry.Event) *sentry.EventID
	fields  []zapcore.Field
}

func newSentryCore(capture func(*sentry.Event) *sentry.EventID) *sentryCore {
	return &sentryCore{capture: capture}
}

func (c *sentryCore) Enabled(level zapcore.Level) bool {
	return level >= zapcore.ErrorLevel
}

func (c *sentryCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)

	return &sentryCore{capture: c.capture, fields: merged}
}

func (c *sentryCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}

	return checked
}

func (c *sentryCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	c.capture(newEvent(entry, append(c.fields[:len(c.fields):len(c.fields)], fields...)))

	return nil
}

func (c *sentryCore) Sync() error {
	sentry.Flush(2 * time.Second)

	return nil
}

func newEvent(entry zapcore.Entry, fields []zapcore.Field) *sentry.Event {
	event := sentry.NewEvent()
	event.Level = sentryLevel(entry.Level)
	event.Message = entry.Message
	event.Logger = entry.LoggerName
	event.Timestamp = entry.Time
	event.Fingerprint = []string{entry.Message}

	for _, f := range fields {
		v, ok := fieldValue(f)
		if !ok {
			continue
		}
		if s, isString := v.(string); isString && tagKeys[f.Key] {
			event.Tags[f.Key] = s

			continue
		}
		event.Extra[f.Key] = v
	}

	return event
}

func sentryLevel(level zapcore.Level) sentry.Level {
	switch level {
	case zapcore.DebugLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	default:
		return sentry.LevelFatal
	}
}

func fieldValue(f zapcore.Field) (interface{}, bool) {
	switch f.Type {
	case zapcore.StringType:
		return f.String, true
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type:
		return f.Integer, true
	case zapcore.Float64Type:
		return math.Float64frombits(uint64(f.Integer)), true
	case zapcore.BoolType:
		return f.Integer == 1, true
	case zapcore.DurationType:
		return time.Duration(f.Integer).String(), true
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok {
			return err.Error(), true
		}
	case zapcore.StringerType:
		if s, ok := f.Interface.(fmt.Stringer); ok {
			return s.String(), true
		}
	case zapcore.ReflectType:
		if f.Interface != nil {
			return f.Interface, true
		}
	}

	return nil, false
}
