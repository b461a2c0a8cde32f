package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red           = "\033[31m"
	Blue          = "\033[34m"
	White         = "\033[37m"
	Gray          = "\033[90m"
	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
	BrightWhite   = "\033[97m"
)

// ColoredLogger is a zap logger whose Component* methods prefix messages
// with a bracketed component tag, colored on terminals.
type ColoredLogger struct {
	*zap.Logger
	enableColors bool
}

// Component names the subsystem a log line comes from.
type Component string

const (
	ComponentHub       Component = "HUB"
	ComponentTransport Component = "TRANSPORT"
	ComponentLibP2P    Component = "LIBP2P"
	ComponentRedis     Component = "REDIS"
	ComponentOlric     Component = "OLRIC"
	ComponentGateway   Component = "GATEWAY"
	ComponentCLI       Component = "CLI"
	ComponentGeneral   Component = "GENERAL"
)

var componentColors = map[Component]string{
	ComponentHub:       BrightBlue,
	ComponentTransport: BrightMagenta,
	ComponentLibP2P:    BrightCyan,
	ComponentRedis:     Red,
	ComponentOlric:     BrightYellow,
	ComponentGateway:   BrightGreen,
	ComponentCLI:       Blue,
}

var levelLetters = map[zapcore.Level]string{
	zapcore.DebugLevel: "D",
	zapcore.InfoLevel:  "I",
	zapcore.WarnLevel:  "W",
	zapcore.ErrorLevel: "E",
}

func levelColor(level zapcore.Level) string {
	switch {
	case level <= zapcore.DebugLevel:
		return Gray
	case level == zapcore.InfoLevel:
		return BrightWhite
	case level == zapcore.WarnLevel:
		return BrightYellow
	case level == zapcore.ErrorLevel:
		return BrightRed
	default:
		return Red
	}
}

func paint(enabled bool, color, s string) string {
	if !enabled {
		return s
	}
	return color + s + Reset
}

// consoleEncoder renders "15:04:05 I caller [COMP] msg {fields}".
func consoleEncoder(colors bool) zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()

	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(paint(colors, Dim, t.Format("15:04:05")))
	}

	cfg.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		letter, ok := levelLetters[level]
		if !ok {
			letter = "?"
		}
		enc.AppendString(paint(colors, levelColor(level)+Bold, letter))
	}

	// File name only, without extension or line.
	cfg.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := strings.TrimSuffix(filepath.Base(caller.File), ".go")
		enc.AppendString(paint(colors, Dim, file))
	}

	return zapcore.NewConsoleEncoder(cfg)
}

// Options tune logger construction.
type Options struct {
	Level        string // debug, info, warn, error; empty means debug
	Format       string // console or json; empty means console
	OutputFile   string // empty for stdout
	EnableColors bool
}

// ParseLevel maps a config level string to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.DebugLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger builds a logger named after component. Colors are forced off
// for JSON output and for file sinks.
func NewLogger(component Component, opts Options) (*ColoredLogger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	colors := opts.EnableColors && opts.OutputFile == ""

	var encoder zapcore.Encoder
	switch opts.Format {
	case "", "console":
		encoder = consoleEncoder(colors)
	case "json":
		colors = false
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	sink := zapcore.AddSync(os.Stdout)
	if opts.OutputFile != "" {
		file, err := os.OpenFile(opts.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.OutputFile, err)
		}
		sink = zapcore.AddSync(file)
	}

	logger := zap.New(zapcore.NewCore(encoder, sink, level), zap.AddCaller(), zap.AddCallerSkip(1)).
		Named(strings.ToLower(string(component)))

	return &ColoredLogger{Logger: logger, enableColors: colors}, nil
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *ColoredLogger {
	return &ColoredLogger{Logger: zap.NewNop()}
}

// NewObservedLogger wraps an arbitrary zap core, mainly so tests can
// capture entries with zaptest/observer.
func NewObservedLogger(core zapcore.Core) *ColoredLogger {
	return &ColoredLogger{Logger: zap.New(core)}
}

func (l *ColoredLogger) tag(component Component, msg string) string {
	color, ok := componentColors[component]
	if !ok {
		color = White
	}
	return paint(l.enableColors, color, "["+string(component)+"]") + " " + msg
}

func (l *ColoredLogger) ComponentDebug(component Component, msg string, fields ...zap.Field) {
	l.Debug(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentInfo(component Component, msg string, fields ...zap.Field) {
	l.Info(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentWarn(component Component, msg string, fields ...zap.Field) {
	l.Warn(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentError(component Component, msg string, fields ...zap.Field) {
	l.Error(l.tag(component, msg), fields...)
}
