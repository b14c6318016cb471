// Package log provides a small leveled logging interface for the scoping agent.
//
// Every component that can degrade instead of failing (the response parser, brief
// generation, search) reports what happened through a Logger, so the console and
// HTTP front ends can choose how loud to be.
//
// # Log Levels
//
//   - LogLevelDebug: state transitions and rendered prompts
//   - LogLevelInfo: session lifecycle (started, brief ready, deleted)
//   - LogLevelWarn: degraded rounds such as fallback decisions or failed searches
//   - LogLevelError: failures that end a session without a brief
//   - LogLevelNone: disables all logging output
//
// # Implementations
//
// DefaultLogger writes through Go's standard log package:
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	logger.Warn("model call failed: %v", err)
//
// GologLogger forwards to github.com/kataras/golog and keeps the golog level in
// sync with the wrapper's level:
//
//	logger := log.NewGologLoggerWithLevel("[scope] ", log.LogLevelDebug)
//	logger.Debug("session %s -> %s", id, status)
//
// NoOpLogger discards everything and is what tests usually pass.
//
// Levels are usually read from configuration with ParseLogLevel.
package log
