// Package logging provides a tiny abstraction over slog so downstream code can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers CrewLogger, a slog backed logger with
// contextual helpers (component, session, agent) and domain specific helpers
// for agent turns, tool dispatches and model calls.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a case-insensitive level name to a LogLevel. Unknown names
// resolve to LogLevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface used across agentcrew.
// Arguments are alternating key/value pairs as accepted by slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// CrewLogger wraps slog.Logger adding contextual cloning helpers and domain
// convenience methods. With* methods return copies; the receiver is never mutated.
type CrewLogger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
	sessionID string
	agent     string
	attrs     []slog.Attr
}

// LoggerConfig configures construction of a CrewLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultLoggerConfig returns a baseline JSON info level configuration writing to stderr.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr}
}

// NewLogger builds a CrewLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *CrewLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return &CrewLogger{logger: slog.New(handler), level: cfg.Level, component: cfg.Component}
}

// NewSlogLogger creates a new CrewLogger with the specified level and format.
func NewSlogLogger(level LogLevel, format string, addSource bool) *CrewLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *CrewLogger) clone() *CrewLogger {
	nl := *l
	nl.attrs = append([]slog.Attr(nil), l.attrs...)
	return &nl
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *CrewLogger) WithContext(key string, value any) *CrewLogger {
	nl := l.clone()
	nl.attrs = append(nl.attrs, slog.Any(key, value))
	return nl
}

// WithComponent sets the logical component (runner, agent, server, etc.).
func (l *CrewLogger) WithComponent(c string) *CrewLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithSession attaches a workflow session identifier.
func (l *CrewLogger) WithSession(sid string) *CrewLogger {
	nl := l.clone()
	nl.sessionID = sid
	return nl
}

// WithAgent attaches the name of the agent on whose behalf entries are logged.
func (l *CrewLogger) WithAgent(name string) *CrewLogger {
	nl := l.clone()
	nl.agent = name
	return nl
}

func (l *CrewLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.attrs)+3)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.sessionID != "" {
		attrs = append(attrs, slog.String("session_id", l.sessionID))
	}
	if l.agent != "" {
		attrs = append(attrs, slog.String("agent", l.agent))
	}
	return append(attrs, l.attrs...)
}

// log emits msg with the scoped attributes first. A call-site attribute whose
// key is already scoped is dropped so entries never carry a key twice.
func (l *CrewLogger) log(level slog.Level, msg string, attrs ...slog.Attr) {
	all := l.buildAttrs()
	scoped := len(all)
	for _, a := range attrs {
		if !hasKey(all[:scoped], a.Key) {
			all = append(all, a)
		}
	}
	l.logger.LogAttrs(context.Background(), level, msg, all...)
}

func hasKey(attrs []slog.Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

func argsToAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2+1)
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case slog.Attr:
			attrs = append(attrs, v)
		case string:
			if i+1 < len(args) {
				attrs = append(attrs, slog.Any(v, args[i+1]))
				i++
			} else {
				attrs = append(attrs, slog.String("!BADKEY", v))
			}
		default:
			attrs = append(attrs, slog.Any("!BADKEY", fmt.Sprint(v)))
		}
	}
	return attrs
}

// Debug logs at debug level.
func (l *CrewLogger) Debug(msg string, args ...any) {
	if l.level <= LogLevelDebug {
		l.log(slog.LevelDebug, msg, argsToAttrs(args)...)
	}
}

// Info logs at info level.
func (l *CrewLogger) Info(msg string, args ...any) {
	if l.level <= LogLevelInfo {
		l.log(slog.LevelInfo, msg, argsToAttrs(args)...)
	}
}

// Warn logs at warn level.
func (l *CrewLogger) Warn(msg string, args ...any) {
	if l.level <= LogLevelWarn {
		l.log(slog.LevelWarn, msg, argsToAttrs(args)...)
	}
}

// Error logs at error level.
func (l *CrewLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, argsToAttrs(args)...)
}

// LogToolCall records the outcome of one tool dispatch. Extra key/value
// pairs are appended to the entry.
func LogToolCall(l Logger, tool string, dur time.Duration, err error, args ...any) {
	kv := append([]any{"tool", tool, "duration_ms", dur.Milliseconds(), "success", err == nil}, args...)
	if err != nil {
		l.Error("tool.call.error", append(kv, "error", err.Error())...)
		return
	}
	l.Info("tool.call.success", kv...)
}

// LogLLMCall records model call latency, token usage and success.
func LogLLMCall(l Logger, model string, tokens int, dur time.Duration, err error, args ...any) {
	kv := append([]any{"model", model, "token_count", tokens, "duration_ms", dur.Milliseconds(), "success", err == nil}, args...)
	if err != nil {
		l.Error("llm.call.error", append(kv, "error", err.Error())...)
		return
	}
	l.Info("llm.call.success", kv...)
}

// LogTurn records the outcome of one agent turn.
func LogTurn(l Logger, agent, next string, messages int, dur time.Duration, args ...any) {
	kv := append([]any{"turn_agent", agent, "next_agent", next, "messages", messages, "duration_ms", dur.Milliseconds()}, args...)
	l.Info("agent.turn.end", kv...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
