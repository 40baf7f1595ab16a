package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"manus-dashboard/internal/application/port/output"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type LoggerAdapter struct {
	sugar  *zap.SugaredLogger
	closer func() error
}

// NewLoggerAdapter writes JSON lines to log/<timestamp>_<name>.log.
func NewLoggerAdapter(name, level string) (*LoggerAdapter, error) {
	safeName := sanitize(name)
	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02_15-04-05"), safeName)

	if err := os.MkdirAll("log", 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	return build(filepath.Join("log", filename), level)
}

// NewStderrLogger is used by long running commands such as serve.
func NewStderrLogger(level string) (*LoggerAdapter, error) {
	return build("stderr", level)
}

// NewFromCore wraps an existing core, mostly for tests.
func NewFromCore(core zapcore.Core) *LoggerAdapter {
	return &LoggerAdapter{sugar: zap.New(core).Sugar()}
}

func build(path, level string) (*LoggerAdapter, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	l := &LoggerAdapter{sugar: z.Sugar()}
	if path != "stderr" {
		l.closer = z.Sync
	}
	return l, nil
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{sugar: l.sugar.With(key, value)}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &LoggerAdapter{sugar: l.sugar.With(args...)}
}

// Close flushes file output. Syncing stderr fails on some terminals, so it is skipped.
func (l *LoggerAdapter) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer()
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "session"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
