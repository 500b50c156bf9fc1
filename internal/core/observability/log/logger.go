package log

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Log = (*Logger)(nil)

// Config describes how the process logger is built. It is read once at
// startup and the resulting Logger is passed to every component that logs.
type Config struct {
	Level       Level    `yaml:"level"`
	Encoding    string   `yaml:"encoding"`
	OutputPaths []string `yaml:"output_paths"`
}

// DefaultConfig logs info and above as JSON to stderr.
func DefaultConfig() Config {
	return Config{
		Level:       LevelInfo,
		Encoding:    "json",
		OutputPaths: []string{"stderr"},
	}
}

type Logger struct {
	zapLogger *zap.Logger
	zapLevel  zap.AtomicLevel
}

// New builds a zap-backed Logger from cfg.
func New(cfg Config) (*Logger, error) {
	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "json"
	}
	if encoding != "json" && encoding != "console" {
		return nil, fmt.Errorf("unsupported log encoding %q", encoding)
	}
	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	level := zap.NewAtomicLevelAt(toZapLevel(cfg.Level))
	config := zap.Config{
		Level:            level,
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return &Logger{
		zapLogger: zapLogger.Named("viewnudger"),
		zapLevel:  level,
	}, nil
}

// FromZap wraps an existing zap logger, e.g. one backed by zaptest/observer.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{
		zapLogger: z,
		zapLevel:  zap.NewAtomicLevelAt(zap.DebugLevel),
	}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{
		zapLogger: zap.NewNop(),
		zapLevel:  zap.NewAtomicLevelAt(zapcore.InvalidLevel),
	}
}

func (l *Logger) Log(level Level, msg string, fields ...Field) {
	if level == LevelSilent || !l.zapLevel.Enabled(toZapLevel(level)) {
		return
	}
	l.zapLogger.Log(toZapLevel(level), msg, toZapFields(fields...)...)
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.Log(LevelDebug, msg, fields...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.Log(LevelInfo, msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.Log(LevelWarn, msg, fields...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.Log(LevelError, msg, fields...)
}

func (l *Logger) With(fields ...Field) Log {
	return &Logger{
		zapLogger: l.zapLogger.With(toZapFields(fields...)...),
		zapLevel:  l.zapLevel,
	}
}

func (l *Logger) SetLevel(level Level) {
	l.zapLevel.SetLevel(toZapLevel(level))
}

func (l *Logger) GetLevel() Level {
	return fromZapLevel(l.zapLevel.Level())
}

// Sync flushes buffered entries. Call it before the process exits.
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

// Helper functions to convert between levels and fields

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zap.DebugLevel
	case LevelInfo:
		return zap.InfoLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	case LevelSilent:
		return zapcore.InvalidLevel
	default:
		return zap.InfoLevel
	}
}

func fromZapLevel(level zapcore.Level) Level {
	switch level {
	case zap.DebugLevel:
		return LevelDebug
	case zap.InfoLevel:
		return LevelInfo
	case zap.WarnLevel:
		return LevelWarn
	case zap.ErrorLevel:
		return LevelError
	case zapcore.InvalidLevel:
		return LevelSilent
	default:
		return LevelInfo
	}
}

func toZapFields(fields ...Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch f.Type {
		case BoolType:
			zapFields[i] = zap.Bool(f.Key, f.Value.(bool))
		case DurationType:
			zapFields[i] = zap.Duration(f.Key, f.Value.(time.Duration))
		case Float64Type:
			zapFields[i] = zap.Float64(f.Key, f.Value.(float64))
		case IntType:
			zapFields[i] = zap.Int(f.Key, f.Value.(int))
		case Int64Type:
			zapFields[i] = zap.Int64(f.Key, f.Value.(int64))
		case StringType:
			zapFields[i] = zap.String(f.Key, f.Value.(string))
		case Uint64Type:
			zapFields[i] = zap.Uint64(f.Key, f.Value.(uint64))
		case ErrorType:
			zapFields[i] = zap.NamedError(f.Key, f.Value.(error))
		case Vec3Type:
			v := f.Value.(mgl64.Vec3)
			zapFields[i] = zap.Float64s(f.Key, []float64{v[0], v[1], v[2]})
		default:
			zapFields[i] = zap.Any(f.Key, f.Value)
		}
	}
	return zapFields
}
