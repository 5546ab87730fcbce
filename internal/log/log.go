// Package log provides category based structured logging for the nutrition
// tools on top of zap. Logging stays disabled until Init or SetWriter is
// called.
package log

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents log severity.
type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// ParseLevel accepts the level names used in config files.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Category groups related log messages. It is written as the logger name.
type Category string

const (
	CatRegistry Category = "registry" // singleton loads and cache hits
	CatStore    Category = "store"    // SQLite catalog store
	CatCatalog  Category = "catalog"  // catalog files and snapshots
	CatCLI      Category = "cli"
)

type logger struct {
	mu      sync.Mutex
	zl      *zap.Logger
	level   zap.AtomicLevel
	enabled bool
	gen     int
}

var std = &logger{
	zl:    zap.NewNop(),
	level: zap.NewAtomicLevelAt(LevelInfo),
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.NameKey = "category"
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// swap installs ws as the output and returns the generation it belongs to.
func (l *logger) swap(ws zapcore.WriteSyncer) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.zl.Sync()
	l.gen++
	if ws == nil {
		l.zl = zap.NewNop()
		l.enabled = false
		return l.gen
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), ws, l.level)
	l.zl = zap.New(core)
	l.enabled = true
	return l.gen
}

// Init opens path through zap's file sink and routes log output there.
// Returns a cleanup function that flushes and closes the log file.
func Init(path string) (func(), error) {
	ws, closeFile, err := zap.Open(path)
	if err != nil {
		return nil, err
	}
	gen := std.swap(ws)

	return func() {
		std.mu.Lock()
		current := std.gen == gen
		std.mu.Unlock()
		if current {
			std.swap(nil)
		}
		closeFile()
	}, nil
}

// SetWriter routes output to w and enables logging. A nil writer disables it.
func SetWriter(w io.Writer) {
	if w == nil {
		std.swap(nil)
		return
	}
	std.swap(zapcore.Lock(zapcore.AddSync(w)))
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	std.mu.Lock()
	std.enabled = enabled
	std.mu.Unlock()
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	std.level.SetLevel(level)
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	write(LevelDebug, cat, msg, kv(fields))
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	write(LevelInfo, cat, msg, kv(fields))
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	write(LevelWarn, cat, msg, kv(fields))
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	write(LevelError, cat, msg, kv(fields))
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	zf := kv(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	} else {
		zf = append(zf, zap.String("error", "<nil>"))
	}
	write(LevelError, cat, msg, zf)
}

// kv turns alternating keys and values into zap fields. A trailing key with
// no value is kept with a placeholder.
func kv(fields []any) []zap.Field {
	zf := make([]zap.Field, 0, (len(fields)+1)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		zf = append(zf, zap.Any(fmt.Sprint(fields[i]), fields[i+1]))
	}
	if len(fields)%2 != 0 {
		zf = append(zf, zap.String(fmt.Sprint(fields[len(fields)-1]), "<missing>"))
	}
	return zf
}

func write(level Level, cat Category, msg string, fields []zap.Field) {
	std.mu.Lock()
	zl, enabled := std.zl, std.enabled
	std.mu.Unlock()
	if !enabled {
		return
	}
	if ce := zl.Named(string(cat)).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}
