// Package logger wraps zap with key/value helpers and redaction of
// credentials and personal data.
package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the encoder and optional file output.
type Config struct {
	// Mode is "dev" (console, debug level) or "prod" (JSON, info level).
	Mode string
	// File, when set, receives JSON logs with size-based rotation.
	File string
	// MaxSizeMB is the rotation threshold for File. Default: 100.
	MaxSizeMB int
}

// Logger is a sugared zap logger whose key/value pairs are sanitized.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	level := zap.InfoLevel
	var console zapcore.Encoder
	switch strings.ToLower(cfg.Mode) {
	case "prod", "production", "release":
		console = zapcore.NewJSONEncoder(encCfg)
	case "dev", "development", "debug", "":
		level = zap.DebugLevel
		console = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log mode %q", cfg.Mode)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(console, zapcore.AddSync(os.Stderr), level),
	}
	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    maxSize,
				MaxBackups: 5,
				MaxAge:     30,
				Compress:   true,
			}),
			level,
		))
	}

	z := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zap.ErrorLevel))
	return &Logger{sugar: z.Sugar()}, nil
}

// NewWithCore builds a Logger on an existing core. Used by tests with
// zaptest/observer.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{sugar: zap.New(core).Sugar()}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, sanitize(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.sugar.Infow(msg, sanitize(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.sugar.Warnw(msg, sanitize(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, sanitize(kv)...) }

// With returns a child logger that adds kv to every entry.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{sugar: l.sugar.With(sanitize(kv)...)}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

// Zap exposes the underlying logger for libraries that want one.
func (l *Logger) Zap() *zap.Logger {
	return l.sugar.Desugar()
}

func sanitize(kv []any) []any {
	if len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := fmt.Sprint(kv[i])
		out = append(out, key, sanitizeValue(strings.ToLower(key), kv[i+1]))
	}
	return out
}

func sanitizeValue(key string, val any) any {
	switch {
	case isRedactKey(key):
		return "[REDACTED]"
	case isHashKey(key):
		return hashValue(val)
	}
	return val
}

func isRedactKey(key string) bool {
	// Token counts are metrics, not credentials.
	if strings.HasSuffix(key, "_tokens") {
		return false
	}
	for _, s := range []string{"api_key", "apikey", "authorization", "token", "password", "secret"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func isHashKey(key string) bool {
	return strings.Contains(key, "email") || strings.Contains(key, "owner_uid")
}

func hashValue(val any) string {
	raw := strings.TrimSpace(fmt.Sprint(val))
	if val == nil || raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}
