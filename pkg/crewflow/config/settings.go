package config

import "time"

// Settings are the engine-level knobs callers typically load from a config
// file: which model provider to use and how turns are bounded and
// persisted.
type Settings struct {
	// Provider selects the model backend: "anthropic", "openai", "cohere".
	Provider string
	// Model is the provider-specific model identifier.
	Model string
	// MaxHops bounds worker executions per turn.
	MaxHops int
	// TurnTimeout bounds one turn's wall-clock duration. Zero disables it.
	TurnTimeout time.Duration
	// CheckpointPath is the SQLite snapshot database path. Empty selects
	// the in-memory store.
	CheckpointPath string
	// EventBuffer is the per-subscriber event channel capacity.
	EventBuffer int
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Provider:    "anthropic",
		Model:       "claude-sonnet-4-20250514",
		MaxHops:     25,
		EventBuffer: 256,
	}
}

// LoadSettings extracts Settings from a Config, falling back to defaults
// for missing keys.
func LoadSettings(cfg Config) Settings {
	def := DefaultSettings()
	return Settings{
		Provider:       cfg.String("provider", def.Provider),
		Model:          cfg.String("model", def.Model),
		MaxHops:        cfg.Int("max_hops", def.MaxHops),
		TurnTimeout:    cfg.Duration("turn_timeout", def.TurnTimeout),
		CheckpointPath: cfg.String("checkpoint_path", def.CheckpointPath),
		EventBuffer:    cfg.Int("event_buffer", def.EventBuffer),
	}
}
