// Package observability provides structured logging, metrics, and tracing
// for the workflow engine.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds engine context to a logger. Returns a new logger with
// thread_id, turn_id, and worker fields.
func EnrichLogger(logger *slog.Logger, threadID, turnID, worker string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("thread_id", threadID),
		slog.String("turn_id", turnID),
		slog.String("worker", worker),
	)
}

// LogTurnStart logs the start of an engine turn.
func LogTurnStart(logger *slog.Logger, threadID, turnID string) {
	if logger == nil {
		return
	}
	logger.Info("turn starting",
		slog.String("thread_id", threadID),
		slog.String("turn_id", turnID),
	)
}

// LogTurnComplete logs successful turn completion.
func LogTurnComplete(logger *slog.Logger, threadID, turnID string, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Info("turn completed",
		slog.String("thread_id", threadID),
		slog.String("turn_id", turnID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
	)
}

// LogTurnError logs turn failure.
func LogTurnError(logger *slog.Logger, threadID, turnID string, err error, durationMs float64, lastWorker string) {
	if logger == nil {
		return
	}
	logger.Error("turn failed",
		slog.String("thread_id", threadID),
		slog.String("turn_id", turnID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_worker", lastWorker),
	)
}

// LogStepStart logs worker execution start.
func LogStepStart(logger *slog.Logger, worker string) {
	if logger == nil {
		return
	}
	logger.Debug("worker starting",
		slog.String("worker", worker),
	)
}

// LogStepComplete logs successful worker completion with its declared route.
func LogStepComplete(logger *slog.Logger, worker, next string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("worker completed",
		slog.String("worker", worker),
		slog.String("next", next),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogStepError logs worker execution error.
func LogStepError(logger *slog.Logger, worker string, err error) {
	if logger == nil {
		return
	}
	logger.Error("worker failed",
		slog.String("worker", worker),
		slog.String("error", err.Error()),
	)
}

// LogCheckpoint logs snapshot persistence.
func LogCheckpoint(logger *slog.Logger, threadID string, step, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("snapshot saved",
		slog.String("thread_id", threadID),
		slog.Int("step", step),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogCheckpointError logs snapshot failure (non-fatal unless configured).
func LogCheckpointError(logger *slog.Logger, threadID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("snapshot failed",
		slog.String("thread_id", threadID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation. Returns a function
// that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
