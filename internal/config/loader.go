package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/memory"
)

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr    = ":9090"
	DefaultTickInterval  = time.Second
	DefaultTicksPerBatch = 8
	DefaultAutosaveEvery = 30
	DefaultDecayEvery    = 24
	DefaultStore         = "memory"
	DefaultMaxFailures   = 3
	DefaultResetTimeout  = 30 * time.Second
)

// StoreSchemes lists the DSN prefixes accepted for store.primary and
// store.fallback, besides the bare "memory".
var StoreSchemes = []string{"sqlite://", "postgres://", "postgresql://"}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}

	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. Unknown keys are rejected. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills zero-valued settings. Component-level tunables left at
// zero are resolved by the components themselves.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Simulation.TickInterval == 0 {
		cfg.Simulation.TickInterval = DefaultTickInterval
	}
	if cfg.Simulation.TicksPerBatch == 0 {
		cfg.Simulation.TicksPerBatch = DefaultTicksPerBatch
	}
	if cfg.Simulation.AutosaveEvery == 0 {
		cfg.Simulation.AutosaveEvery = DefaultAutosaveEvery
	}
	if cfg.Memory.Capacity == 0 {
		cfg.Memory.Capacity = memory.DefaultCapacity
	}
	if cfg.Memory.AgeWeight == 0 {
		cfg.Memory.AgeWeight = memory.DefaultAgeWeight
	}
	if cfg.Relationships.DecayEvery == 0 {
		cfg.Relationships.DecayEvery = DefaultDecayEvery
	}
	if cfg.Intent.Fuzzy == nil {
		fuzzy := true
		cfg.Intent.Fuzzy = &fuzzy
	}
	if cfg.Store.Primary == "" {
		cfg.Store.Primary = DefaultStore
	}
	if cfg.Store.MaxFailures == 0 {
		cfg.Store.MaxFailures = DefaultMaxFailures
	}
	if cfg.Store.ResetTimeout == 0 {
		cfg.Store.ResetTimeout = DefaultResetTimeout
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error
	negative := func(field string, v float64) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s %v must not be negative", field, v))
		}
	}

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Simulation
	sim := cfg.Simulation
	if sim.Roster == "" {
		errs = append(errs, errors.New("simulation.roster is required"))
	}
	if sim.Seed != 0 && sim.SeedPhrase != "" {
		errs = append(errs, errors.New("simulation.seed and simulation.seed_phrase are mutually exclusive"))
	}
	negative("simulation.tick_interval", float64(sim.TickInterval))
	negative("simulation.ticks_per_batch", float64(sim.TicksPerBatch))
	negative("simulation.autosave_every", float64(sim.AutosaveEvery))
	if sim.Templates == "" {
		slog.Warn("simulation.templates is empty; NPCs will only use generic responses")
	}

	// Memory
	negative("memory.capacity", float64(cfg.Memory.Capacity))
	negative("memory.age_weight", cfg.Memory.AgeWeight)

	// Relationships
	if r := cfg.Relationships.DecayRate; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("relationships.decay_rate %v is out of range [0, 1]", r))
	}
	negative("relationships.decay_every", float64(cfg.Relationships.DecayEvery))

	// Intent
	negative("intent.max_input_bytes", float64(cfg.Intent.MaxInputBytes))
	negative("intent.max_run", float64(cfg.Intent.MaxRun))
	negative("intent.max_tokens", float64(cfg.Intent.MaxTokens))

	// Selector
	if c := cfg.Selector.ConfidenceThreshold; c < 0 || c > 1 {
		errs = append(errs, fmt.Errorf("selector.confidence_threshold %v is out of range [0, 1]", c))
	}
	if t := cfg.Selector.TensionThreshold; t < 0 || t > 100 {
		errs = append(errs, fmt.Errorf("selector.tension_threshold %v is out of range [0, 100]", t))
	}
	negative("selector.diversity_window", float64(cfg.Selector.DiversityWindow))
	if p := cfg.Selector.DiversityPenalty; p < 0 || p > 1 {
		errs = append(errs, fmt.Errorf("selector.diversity_penalty %v is out of range [0, 1]", p))
	}

	// Search
	negative("search.max_iterations", float64(cfg.Search.MaxIterations))
	negative("search.max_expansions", float64(cfg.Search.MaxExpansions))
	negative("search.max_turns", float64(cfg.Search.MaxTurns))
	negative("search.timeout", float64(cfg.Search.Timeout))
	if cfg.Search.Timeout > 0 {
		slog.Warn("search.timeout is set; conversation search results are no longer reproducible")
	}

	// Ambient
	negative("ambient.interest_threshold", cfg.Ambient.InterestThreshold)
	negative("ambient.swing_threshold", cfg.Ambient.SwingThreshold)
	negative("ambient.max_storylines", float64(cfg.Ambient.MaxStorylines))

	// Store
	for _, f := range []struct{ field, dsn string }{
		{"store.primary", cfg.Store.Primary},
		{"store.fallback", cfg.Store.Fallback},
	} {
		if f.dsn != "" && !validStoreDSN(f.dsn) {
			errs = append(errs, fmt.Errorf("%s %q is invalid; use memory, sqlite://path or postgres://…", f.field, f.dsn))
		}
	}
	if cfg.Store.Fallback != "" && cfg.Store.Fallback == cfg.Store.Primary {
		errs = append(errs, errors.New("store.fallback must differ from store.primary"))
	}
	negative("store.max_failures", float64(cfg.Store.MaxFailures))
	negative("store.reset_timeout", float64(cfg.Store.ResetTimeout))

	return errors.Join(errs...)
}

func validStoreDSN(dsn string) bool {
	if dsn == DefaultStore {
		return true
	}
	for _, scheme := range StoreSchemes {
		if strings.HasPrefix(dsn, scheme) && len(dsn) > len(scheme) {
			return true
		}
	}
	return false
}
