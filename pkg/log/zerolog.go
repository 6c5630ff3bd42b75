// Package log provides a zerolog-backed implementation of the Logger and
// LoggerProvider interfaces.
//
// This is the default production backend: structured JSON lines with
// timestamps, automatic stack trace extraction for cockroachdb/errors
// values, and level filtering shared across all loggers handed out by the
// provider.

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	logger zerolog.Logger
	level  Level
}

// Debug implements Logger.Debug.
func (z *ZerologLogger) Debug(msg string, fields ...any) {
	if z.level > LevelDebug {
		return
	}
	z.emit(z.logger.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (z *ZerologLogger) Info(msg string, fields ...any) {
	if z.level > LevelInfo {
		return
	}
	z.emit(z.logger.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (z *ZerologLogger) Warn(msg string, fields ...any) {
	if z.level > LevelWarn {
		return
	}
	z.emit(z.logger.Warn(), msg, fields)
}

// Error implements Logger.Error.
// If the field list starts with a bare error value (leaving an odd number of
// remaining elements), that error is attached under the standard error key
// together with its stack trace when one is available.
func (z *ZerologLogger) Error(msg string, fields ...any) {
	if z.level > LevelError {
		return
	}
	e := z.logger.Error()
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			e = e.Err(err)
			if st := extractStacktrace(err); st != "" {
				e = e.Str(StacktraceAttrKey, st)
			}
			fields = fields[1:]
		}
	}
	z.emit(e, msg, fields)
}

// With implements Logger.With.
func (z *ZerologLogger) With(fields ...any) Logger {
	ctx := z.logger.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ctx = ctx.AnErr(key, v)
		default:
			ctx = ctx.Interface(key, v)
		}
	}
	return &ZerologLogger{logger: ctx.Logger(), level: z.level}
}

// Enabled implements Logger.Enabled.
func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return level >= z.level
}

func (z *ZerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
			if st := extractStacktrace(v); st != "" {
				e = e.Str(StacktraceAttrKey, st)
			}
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

// ZerologProvider creates zerolog-backed loggers sharing one writer and one
// minimum level.
type ZerologProvider struct {
	mu     sync.RWMutex
	level  Level
	writer io.Writer
}

// NewZerologProvider creates a provider writing JSON lines to stderr.
// The level argument uses slog semantics so call sites can reuse
// ToLogLevel("info") style conversions.
func NewZerologProvider(level slog.Level) *ZerologProvider {
	return NewZerologProviderWithWriter(level, os.Stderr)
}

// NewZerologProviderWithWriter creates a provider writing to w.
func NewZerologProviderWithWriter(level slog.Level, w io.Writer) *ZerologProvider {
	return &ZerologProvider{
		level:  FromSlogLevel(level),
		writer: w,
	}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	zl := zerolog.New(p.writer).With().Timestamp().Logger().Level(toZerologLevel(p.level))
	return &ZerologLogger{logger: zl, level: p.level}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
// The component name is attached under the standard ComponentKey attribute.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
// Loggers created before the call keep their original level.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
}

// FromSlogLevel converts an slog.Level to the package Level type.
func FromSlogLevel(l slog.Level) Level {
	switch {
	case l <= slog.LevelDebug:
		return LevelDebug
	case l <= slog.LevelInfo:
		return LevelInfo
	case l <= slog.LevelWarn:
		return LevelWarn
	default:
		return LevelError
	}
}

func toZerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
