package log

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

type Log interface {
	Log(level Level, msg string, fields ...Field)

	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Log

	SetLevel(level Level)
	GetLevel() Level
}

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent Level = 101
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSilent:
		return "silent"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// ParseLevel converts a textual level ("debug", "INFO", "warning", ...) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off", "none":
		return LevelSilent, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// UnmarshalText lets a Level be read straight from YAML or flags.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

type Field struct {
	Key   string
	Type  FieldType
	Value any
}

// A FieldType indicates which member of the Field union struct should be used
// and how it should be serialized.
type FieldType uint8

const (
	UnknownType FieldType = iota
	BoolType
	DurationType
	Float64Type
	IntType
	Int64Type
	StringType
	Uint64Type
	ErrorType
	Vec3Type
)

func Any(key string, val any) Field {
	return Field{
		Key:   key,
		Type:  UnknownType,
		Value: val,
	}
}

func Bool(key string, val bool) Field {
	return Field{
		Key:   key,
		Type:  BoolType,
		Value: val,
	}
}

func Duration(key string, val time.Duration) Field {
	return Field{
		Key:   key,
		Type:  DurationType,
		Value: val,
	}
}

func Float64(key string, val float64) Field {
	return Field{
		Key:   key,
		Type:  Float64Type,
		Value: val,
	}
}

func Int(key string, val int) Field {
	return Field{
		Key:   key,
		Type:  IntType,
		Value: val,
	}
}

func Int64(key string, val int64) Field {
	return Field{
		Key:   key,
		Type:  Int64Type,
		Value: val,
	}
}

func String(key string, val string) Field {
	return Field{
		Key:   key,
		Type:  StringType,
		Value: val,
	}
}

func Uint64(key string, val uint64) Field {
	return Field{
		Key:   key,
		Type:  Uint64Type,
		Value: val,
	}
}

// Vec3 logs a point or direction as a three element array.
func Vec3(key string, val mgl64.Vec3) Field {
	return Field{
		Key:   key,
		Type:  Vec3Type,
		Value: val,
	}
}

func Error(val error) Field {
	return Field{
		Key:   "error",
		Type:  ErrorType,
		Value: val,
	}
}

func ErrorWithKey(key string, val error) Field {
	return Field{
		Key:   key,
		Type:  ErrorType,
		Value: val,
	}
}
