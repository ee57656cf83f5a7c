package logger

import (
	"context"
	"fmt"
	"io"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

// ParseLevel maps a level name such as "warn" to its Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "info"
}

// UnmarshalText lets config files spell levels by name.
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

type Fields map[string]any

type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...any)
	Info(msg string)
	Infof(format string, args ...any)
	Warn(msg string)
	Warnf(format string, args ...any)
	Error(msg string)
	Errorf(format string, args ...any)
	Fatal(msg string)
	Fatalf(format string, args ...any)

	WithField(key string, value any) Logger
	WithFields(fields Fields) Logger
	WithContext(ctx context.Context) Logger

	SetLevel(level Level)
	SetOutput(output io.Writer)
}

// Nop discards everything. Tests and library callers without a logger use it.
type Nop struct{}

var _ Logger = Nop{}

func (Nop) Debug(string)                   {}
func (Nop) Debugf(string, ...any)          {}
func (Nop) Info(string)                    {}
func (Nop) Infof(string, ...any)           {}
func (Nop) Warn(string)                    {}
func (Nop) Warnf(string, ...any)           {}
func (Nop) Error(string)                   {}
func (Nop) Errorf(string, ...any)          {}
func (Nop) Fatal(string)                   {}
func (Nop) Fatalf(string, ...any)          {}
func (n Nop) WithField(string, any) Logger { return n }
func (n Nop) WithFields(Fields) Logger     { return n }
func (n Nop) WithContext(context.Context) Logger {
	return n
}
func (Nop) SetLevel(Level)      {}
func (Nop) SetOutput(io.Writer) {}
