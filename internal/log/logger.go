package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var zapLevels = map[Level]zapcore.Level{
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
}

func (l Level) zap() zapcore.Level {
	if zl, ok := zapLevels[l]; ok {
		return zl
	}
	return zapcore.InfoLevel
}

// Options configures the operational logger.
type Options struct {
	Level Level
	// Console receives human readable lines. Defaults to os.Stderr.
	Console io.Writer
	// DiagPath, when set, adds a JSON log rotated by size.
	DiagPath string
}

// Logger writes operational diagnostics to the console and, optionally, to
// a rotated JSON file. It never writes the outage log.
type Logger struct {
	z     *zap.Logger
	level zap.AtomicLevel
	diag  *lumberjack.Logger
}

// NewLogger creates a console logger on stderr with the specified level.
func NewLogger(level Level) *Logger {
	return build(Options{Level: level})
}

// New builds a logger from opts. A DiagPath that cannot be created or
// appended to is reported here rather than on the first write.
func New(opts Options) (*Logger, error) {
	if opts.DiagPath != "" {
		if err := checkDiagPath(opts.DiagPath); err != nil {
			return nil, fmt.Errorf("open diag log %s: %w", opts.DiagPath, err)
		}
	}
	return build(opts), nil
}

func checkDiagPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

func build(opts Options) *Logger {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	level := zap.NewAtomicLevelAt(opts.Level.zap())

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(console), level),
	}

	l := &Logger{level: level}
	if opts.DiagPath != "" {
		l.diag = &lumberjack.Logger{
			Filename:   opts.DiagPath,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.TimeKey = "ts"
		jsonCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(l.diag), level))
	}

	l.z = zap.New(zapcore.NewTee(cores...))
	return l
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zap())
}

// Sync flushes buffered entries and closes the diagnostic file.
func (l *Logger) Sync() error {
	err := l.z.Sync()
	if l.diag != nil {
		if cerr := l.diag.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func zapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields map[string]interface{}) {
	l.z.Debug(message, zapFields(fields)...)
}

// Info logs an info message
func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.z.Info(message, zapFields(fields)...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.z.Warn(message, zapFields(fields)...)
}

// Error logs an error message
func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.z.Error(message, zapFields(fields)...)
}

// LogProbeResult logs one probe outcome. Successes are debug level.
func (l *Logger) LogProbeResult(target string, success bool, rtt time.Duration, err error) {
	fields := []zap.Field{
		zap.String("target", target),
		zap.Bool("success", success),
		zap.Int64("rtt_ms", rtt.Milliseconds()),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	if success {
		l.z.Debug("probe result", fields...)
	} else {
		l.z.Warn("probe failed", fields...)
	}
}

// LogTransition logs a connectivity state change. elapsed is zero when an
// outage starts.
func (l *Logger) LogTransition(target, from, to string, at time.Time, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("target", target),
		zap.String("from", from),
		zap.String("to", to),
		zap.Time("at", at),
	}
	if elapsed > 0 {
		fields = append(fields, zap.Duration("outage", elapsed))
	}
	l.z.Info("connectivity changed", fields...)
}

// LogConfigLoad logs a config load event
func (l *Logger) LogConfigLoad(success bool, path string, err error) {
	fields := map[string]interface{}{
		"path": path,
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	if success {
		l.Info("config loaded", fields)
	} else {
		l.Error("config load failed", fields)
	}
}

// LogError logs a general error
func (l *Logger) LogError(component string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["component"] = component
	if err != nil {
		fields["error"] = err.Error()
	}
	l.Error("error occurred", fields)
}

// ParseLevel parses a log level string
func ParseLevel(levelStr string) Level {
	switch levelStr {
	case "DEBUG", "debug":
		return LevelDebug
	case "INFO", "info":
		return LevelInfo
	case "WARN", "warn", "WARNING", "warning":
		return LevelWarn
	case "ERROR", "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop(), level: zap.NewAtomicLevel()}
}
