// Package config provides the configuration schema and loader for the NPC
// simulation daemon, and a polling watcher for hot-reloading its tunables.
package config

import "time"

// LogLevel controls log verbosity for the daemon.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Simulation    SimulationConfig    `yaml:"simulation"`
	Memory        MemoryConfig        `yaml:"memory"`
	Relationships RelationshipsConfig `yaml:"relationships"`
	Intent        IntentConfig        `yaml:"intent"`
	Selector      SelectorConfig      `yaml:"selector"`
	Search        SearchConfig        `yaml:"search"`
	Ambient       AmbientConfig       `yaml:"ambient"`
	Store         StoreConfig         `yaml:"store"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address for the metrics and health endpoints
	// (e.g., ":9090"). Empty disables the HTTP server.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Hot-reloadable.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the HTTP server. When nil, it runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// SimulationConfig selects the world content and drives the ambient loop.
type SimulationConfig struct {
	// Seed seeds the random source of a fresh world. A restored world keeps
	// its saved seed.
	Seed uint64 `yaml:"seed"`

	// SeedPhrase, if set, is hashed into the seed instead of using Seed.
	SeedPhrase string `yaml:"seed_phrase"`

	// TickInterval is the pause between ambient batches. Default: 1s.
	TickInterval time.Duration `yaml:"tick_interval"`

	// TicksPerBatch is the number of ambient ticks run per batch. Default: 8.
	TicksPerBatch int `yaml:"ticks_per_batch"`

	// AutosaveEvery saves a snapshot after this many batches. Default: 30.
	AutosaveEvery int `yaml:"autosave_every"`

	// Roster is the path of the NPC roster YAML file. Required.
	Roster string `yaml:"roster"`

	// Templates is the path of the response template YAML file. When empty,
	// only the generic templates are available.
	Templates string `yaml:"templates"`

	// ChatbaseDir is the directory holding the chatbase manifest and per-NPC
	// files. When empty or unreadable, every lookup misses.
	ChatbaseDir string `yaml:"chatbase_dir"`
}

// MemoryConfig bounds per-NPC episodic memory.
type MemoryConfig struct {
	// Capacity is the number of events each NPC retains. Default: 50.
	Capacity int `yaml:"capacity"`

	// AgeWeight is how much priority an event loses per turn of age.
	// Default: 0.5.
	AgeWeight float64 `yaml:"age_weight"`
}

// RelationshipsConfig tunes relationship decay.
type RelationshipsConfig struct {
	// DecayRate is the fraction by which decaying stats move towards neutral
	// at each decay step. Zero disables decay.
	DecayRate float64 `yaml:"decay_rate"`

	// DecayEvery is the number of turns between decay steps. Default: 24.
	DecayEvery int `yaml:"decay_every"`
}

// IntentConfig hardens the player-input intent detector.
type IntentConfig struct {
	MaxInputBytes int `yaml:"max_input_bytes"`
	MaxRun        int `yaml:"max_run"`
	MaxTokens     int `yaml:"max_tokens"`

	// Fuzzy enables misspelling-tolerant keyword matching. Default: true.
	Fuzzy *bool `yaml:"fuzzy"`
}

// SelectorConfig tunes response selection. Hot-reloadable except
// DiversityWindow.
type SelectorConfig struct {
	// ConfidenceThreshold is the minimum chatbase confidence accepted.
	// Default: 0.6.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// TensionThreshold marks a conversation as high-stakes, which enables
	// search. Default: 60.
	TensionThreshold float64 `yaml:"tension_threshold"`

	// DiversityWindow is how many recent responses per NPC are remembered.
	// Default: 6.
	DiversityWindow int `yaml:"diversity_window"`

	// DiversityPenalty multiplies a template's weight once per recent use.
	// Default: 0.35.
	DiversityPenalty float64 `yaml:"diversity_penalty"`
}

// SearchConfig bounds each conversation search. Hot-reloadable.
type SearchConfig struct {
	MaxIterations int `yaml:"max_iterations"`
	MaxExpansions int `yaml:"max_expansions"`
	MaxTurns      int `yaml:"max_turns"`

	// Timeout adds a wall-clock bound to each search. Zero keeps results
	// reproducible.
	Timeout time.Duration `yaml:"timeout"`
}

// AmbientConfig tunes storyline detection. Hot-reloadable.
type AmbientConfig struct {
	InterestThreshold float64 `yaml:"interest_threshold"`
	SwingThreshold    float64 `yaml:"swing_threshold"`
	MaxStorylines     int     `yaml:"max_storylines"`
}

// StoreConfig selects where snapshots are persisted.
type StoreConfig struct {
	// Primary is the DSN of the main store: "memory", "sqlite://path" or
	// "postgres://…". Default: "memory".
	Primary string `yaml:"primary"`

	// Fallback, if set, is tried when Primary fails.
	Fallback string `yaml:"fallback"`

	// MaxFailures is the number of consecutive failures that opens a
	// backend's circuit breaker. Default: 3.
	MaxFailures int `yaml:"max_failures"`

	// ResetTimeout is how long an open breaker waits before probing.
	// Default: 30s.
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}
