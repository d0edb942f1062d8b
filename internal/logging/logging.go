// Package logging provides the structured zerolog logger shared by every
// component of the sync engine.
package logging

import (
	"os"
	"strconv"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with an optional sampler for noisy warn/error paths.
type Logger struct {
	logger  zerolog.Logger
	sampler zerolog.Sampler
	sampled zerolog.Logger
}

// New builds a Logger writing to stdout. format "console" renders a
// human-readable writer; anything else (including "") emits raw JSON lines.
func New(format, level string) *Logger {
	var w interface{ Write([]byte) (int, error) } = os.Stdout
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	l := zerolog.New(w).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		l = l.Level(lvl)
	}

	var samp zerolog.Sampler
	if v := os.Getenv("BINLOGSYNC_LOG_SAMPLE_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			samp = zerolog.RandomSampler(n)
		}
	}
	var sampled zerolog.Logger
	if samp != nil {
		sampled = l.Sample(samp)
	}

	return &Logger{logger: l, sampler: samp, sampled: sampled}
}

func (l *Logger) event(e *zerolog.Event, msg string, kv ...interface{}) {
	for i := 0; i < len(kv); i += 2 {
		key, _ := kv[i].(string)
		if key == "" {
			continue
		}
		if i+1 < len(kv) {
			e.Interface(key, kv[i+1])
		} else {
			e.Interface(key, nil)
		}
	}
	e.Msg(msg)
}

// Debug logs a debug-level message with structured key/value pairs.
func (l *Logger) Debug(msg string, kv ...interface{}) { l.event(l.logger.Debug(), msg, kv...) }

// Info logs an info-level message with structured key/value pairs.
func (l *Logger) Info(msg string, kv ...interface{}) { l.event(l.logger.Info(), msg, kv...) }

// Warn logs a warning-level message, sampled if BINLOGSYNC_LOG_SAMPLE_N is set.
func (l *Logger) Warn(msg string, kv ...interface{}) {
	if l.sampler != nil {
		l.event(l.sampled.Warn(), msg, kv...)
		return
	}
	l.event(l.logger.Warn(), msg, kv...)
}

// Error logs an error-level message, sampled if BINLOGSYNC_LOG_SAMPLE_N is set.
func (l *Logger) Error(msg string, kv ...interface{}) {
	if l.sampler != nil {
		l.event(l.sampled.Error(), msg, kv...)
		return
	}
	l.event(l.logger.Error(), msg, kv...)
}

// Zerolog exposes the underlying zerolog.Logger for libraries that want one directly.
func (l *Logger) Zerolog() zerolog.Logger { return l.logger }
