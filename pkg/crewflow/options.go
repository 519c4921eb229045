package crewflow

import (
	"log/slog"
	"time"

	"github.com/calebmorris/crewflow/pkg/crewflow/event"
	"github.com/calebmorris/crewflow/pkg/crewflow/observability"
)

// engineConfig holds engine behavior configuration.
type engineConfig struct {
	logger                 *slog.Logger
	metrics                observability.MetricsRecorder
	spans                  observability.SpanManager
	tracingEnabled         bool
	bus                    *event.Bus
	maxHops                int
	turnTimeout            time.Duration
	checkpointFailureFatal bool
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
		maxHops: 25,
	}
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithLogger enables structured logging with the given slog logger.
// Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics collection. Call with
// observability.NewMetricsRecorder() for the default recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *engineConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry span creation for turns and steps.
func WithTracing() Option {
	return func(c *engineConfig) {
		c.tracingEnabled = true
		c.spans = observability.NewSpanManager()
	}
}

// WithEventBus attaches a bus that receives every step event, in addition
// to any Stream subscriber.
func WithEventBus(bus *event.Bus) Option {
	return func(c *engineConfig) {
		c.bus = bus
	}
}

// WithMaxHops sets the maximum number of worker executions per turn.
// Default: 25.
//
// The supervisor/validator cycle is not structurally guaranteed to
// terminate; this bound converts a runaway loop into a MaxHopsError.
func WithMaxHops(n int) Option {
	return func(c *engineConfig) {
		if n > 0 {
			c.maxHops = n
		}
	}
}

// WithTurnTimeout bounds the wall-clock duration of one turn. When the
// deadline passes, the turn stops and resolves to a degraded timeout answer
// instead of an error. Default: no timeout.
func WithTurnTimeout(d time.Duration) Option {
	return func(c *engineConfig) {
		if d > 0 {
			c.turnTimeout = d
		}
	}
}

// WithCheckpointFailureFatal makes snapshot persistence failures abort the
// turn. Default: failures are logged and the turn continues, trading
// resumability for availability.
func WithCheckpointFailureFatal() Option {
	return func(c *engineConfig) {
		c.checkpointFailureFatal = true
	}
}
