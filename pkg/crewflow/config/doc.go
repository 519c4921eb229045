/*
Package config provides typed configuration extraction for the engine.

Config wraps a map[string]any with accessors that handle missing keys and
type mismatches by returning defaults, so values pulled out of YAML or JSON
never need verbose type assertions:

	cfg, err := config.FromFile("crewflow.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	timeout := cfg.Duration("turn_timeout", 30*time.Second)

Settings bundles the engine-level keys into one struct:

	settings := config.LoadSettings(cfg)
*/
package config
