package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result. An
// empty document yields a zero Config that is returned without validation.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Gateway
	if cfg.Gateway.URL == "" {
		errs = append(errs, errors.New("gateway.url is required"))
	}
	if cfg.Gateway.Token == "" {
		errs = append(errs, errors.New("gateway.token is required"))
	}
	for _, name := range cfg.Gateway.Intents {
		if !slices.Contains(IntentNames, name) {
			errs = append(errs, fmt.Errorf("gateway.intents: unknown intent name %q", name))
		}
	}

	// Voice
	if cfg.Voice.BitrateBps != 0 && (cfg.Voice.BitrateBps < 6000 || cfg.Voice.BitrateBps > 510000) {
		errs = append(errs, fmt.Errorf("voice.bitrate_bps %d is out of range [6000, 510000]", cfg.Voice.BitrateBps))
	}

	// REST
	if cfg.REST.BaseURL == "" {
		slog.Warn("rest.base_url is empty; REST calls will fail until one is configured")
	}
	if cfg.REST.CircuitBreaker.FailureThreshold < 0 {
		errs = append(errs, errors.New("rest.circuit_breaker.failure_threshold must be >= 0"))
	}

	// Guilds
	namesSeen := make(map[string]int, len(cfg.Guilds))
	for i, g := range cfg.Guilds {
		prefix := fmt.Sprintf("guilds[%d]", i)
		if g.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else if prev, ok := namesSeen[g.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of guilds[%d]", prefix, g.Name, prev))
		} else {
			namesSeen[g.Name] = i
		}
		if g.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		}
	}

	return errors.Join(errs...)
}
