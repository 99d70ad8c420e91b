// Package logging provides a minimal logging interface and a slog backed logger for agentcrew.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that agents, the runner and the HTTP bridge use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - CrewLogger with component/session/agent context and turn, tool and model helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	r := runner.New(agents, func(o *runner.Options) { o.Logger = logger })
package logging
