// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/netascode/go-glinet"
)

// zerologLogger adapts zerolog to glinet.Logger
type zerologLogger struct {
	logger zerolog.Logger
}

var _ glinet.Logger = (*zerologLogger)(nil)

// newLogger writes human-readable entries to w at the given level
func newLogger(w io.Writer, level glinet.LogLevel) *zerologLogger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return &zerologLogger{
		logger: zerolog.New(out).Level(zerologLevel(level)).With().Timestamp().Logger(),
	}
}

func zerologLevel(level glinet.LogLevel) zerolog.Level {
	switch level {
	case glinet.LogLevelDebug:
		return zerolog.DebugLevel
	case glinet.LogLevelInfo:
		return zerolog.InfoLevel
	case glinet.LogLevelWarn:
		return zerolog.WarnLevel
	case glinet.LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

func (l *zerologLogger) Debug(ctx context.Context, msg string, keysAndValues ...any) {
	l.write(ctx, l.logger.Debug(), msg, keysAndValues)
}

func (l *zerologLogger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	l.write(ctx, l.logger.Info(), msg, keysAndValues)
}

func (l *zerologLogger) Warn(ctx context.Context, msg string, keysAndValues ...any) {
	l.write(ctx, l.logger.Warn(), msg, keysAndValues)
}

func (l *zerologLogger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	l.write(ctx, l.logger.Error(), msg, keysAndValues)
}

// write attaches the key/value pairs; a trailing key without value is kept
// with a nil value
func (l *zerologLogger) write(ctx context.Context, event *zerolog.Event, msg string, keysAndValues []any) {
	if event == nil {
		return
	}
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 < len(keysAndValues) {
			event = event.Interface(key, keysAndValues[i+1])
		} else {
			event = event.Interface(key, nil)
		}
	}
	event.Ctx(ctx).Msg(msg)
}
