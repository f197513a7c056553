package config_test

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/config"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/resilience"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/search"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/selector"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/memory"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":9191"
  log_level: debug

simulation:
  seed_phrase: "NEVER DIE GUY"
  tick_interval: 250ms
  ticks_per_batch: 4
  autosave_every: 10
  roster: roster.yaml
  templates: templates.yaml
  chatbase_dir: chatbase

memory:
  capacity: 20
  age_weight: 0.25

relationships:
  decay_rate: 0.02
  decay_every: 12

intent:
  max_input_bytes: 256
  fuzzy: false

selector:
  confidence_threshold: 0.7
  tension_threshold: 55
  diversity_window: 4
  diversity_penalty: 0.5

search:
  max_iterations: 80
  max_turns: 4

ambient:
  interest_threshold: 1.5
  swing_threshold: 10
  max_storylines: 16

store:
  primary: postgres://npcsim@localhost/npcsim
  fallback: sqlite://npcsim.db
  max_failures: 2
  reset_timeout: 1m
`

func mustLoad(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	return cfg
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestLoadFromReader_Sample(t *testing.T) {
	t.Parallel()

	cfg := mustLoad(t, sampleYAML)

	if cfg.Server.ListenAddr != ":9191" || cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("server = %+v", cfg.Server)
	}
	sim := cfg.Simulation
	if sim.TickInterval != 250*time.Millisecond || sim.TicksPerBatch != 4 || sim.AutosaveEvery != 10 {
		t.Errorf("simulation = %+v", sim)
	}
	if sim.Roster != "roster.yaml" || sim.Templates != "templates.yaml" || sim.ChatbaseDir != "chatbase" {
		t.Errorf("simulation paths = %+v", sim)
	}
	if cfg.Memory.Capacity != 20 || cfg.Memory.AgeWeight != 0.25 {
		t.Errorf("memory = %+v", cfg.Memory)
	}
	if cfg.Intent.Fuzzy == nil || *cfg.Intent.Fuzzy {
		t.Error("intent.fuzzy: want explicit false")
	}
	if cfg.Store.ResetTimeout != time.Minute || cfg.Store.MaxFailures != 2 {
		t.Errorf("store = %+v", cfg.Store)
	}
}

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()

	cfg := mustLoad(t, "simulation:\n  roster: roster.yaml\n")

	if cfg.Server.ListenAddr != config.DefaultListenAddr {
		t.Errorf("listen_addr = %q, want %q", cfg.Server.ListenAddr, config.DefaultListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Simulation.TickInterval != config.DefaultTickInterval ||
		cfg.Simulation.TicksPerBatch != config.DefaultTicksPerBatch ||
		cfg.Simulation.AutosaveEvery != config.DefaultAutosaveEvery {
		t.Errorf("simulation defaults = %+v", cfg.Simulation)
	}
	if cfg.Memory.Capacity != memory.DefaultCapacity || cfg.Memory.AgeWeight != memory.DefaultAgeWeight {
		t.Errorf("memory defaults = %+v", cfg.Memory)
	}
	if cfg.Relationships.DecayEvery != config.DefaultDecayEvery {
		t.Errorf("decay_every = %d", cfg.Relationships.DecayEvery)
	}
	if cfg.Intent.Fuzzy == nil || !*cfg.Intent.Fuzzy {
		t.Error("intent.fuzzy should default to true")
	}
	if cfg.Store.Primary != config.DefaultStore || cfg.Store.Fallback != "" {
		t.Errorf("store = %+v", cfg.Store)
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level config.LogLevel
		want  slog.Level
	}{
		{config.LogDebug, slog.LevelDebug},
		{config.LogInfo, slog.LevelInfo},
		{config.LogWarn, slog.LevelWarn},
		{config.LogError, slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := tc.level.SlogLevel(); got != tc.want {
			t.Errorf("%q.SlogLevel() = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestSimulationConfig_RNG(t *testing.T) {
	t.Parallel()

	phrase := config.SimulationConfig{SeedPhrase: "NEVER DIE GUY"}.RNG()
	if want := rng.NewFromString("NEVER DIE GUY"); phrase.Seed() != want.Seed() {
		t.Errorf("phrase seed = %d, want %d", phrase.Seed(), want.Seed())
	}
	if got := (config.SimulationConfig{Seed: 42}).RNG().Seed(); got != 42 {
		t.Errorf("numeric seed = %d, want 42", got)
	}
}

func TestConfig_SelectorTunables(t *testing.T) {
	t.Parallel()

	t.Run("configured", func(t *testing.T) {
		t.Parallel()
		got := mustLoad(t, sampleYAML).SelectorTunables()
		want := selector.Tunables{
			ConfidenceThreshold: 0.7,
			TensionThreshold:    55,
			DiversityPenalty:    0.5,
			Budget:              search.Budget{MaxIterations: 80, MaxTurns: 4},
		}
		if d := cmp.Diff(want, got); d != "" {
			t.Errorf("SelectorTunables mismatch (-want +got):\n%s", d)
		}
	})

	t.Run("zero keeps selector defaults", func(t *testing.T) {
		t.Parallel()
		got := mustLoad(t, "simulation:\n  roster: r.yaml\n").SelectorTunables()
		want := selector.DefaultTunables()
		want.Budget = search.Budget{}
		if d := cmp.Diff(want, got); d != "" {
			t.Errorf("SelectorTunables mismatch (-want +got):\n%s", d)
		}
	})
}

func TestConfig_Options(t *testing.T) {
	t.Parallel()

	cfg := mustLoad(t, sampleYAML)
	if n := len(cfg.SelectorOptions()); n != 4 {
		t.Errorf("SelectorOptions: %d options, want 4 with a diversity window", n)
	}
	if n := len(cfg.AmbientOptions(7)); n != 5 {
		t.Errorf("AmbientOptions: %d options, want 5", n)
	}
	if n := len(cfg.Intent.DetectorOptions()); n != 4 {
		t.Errorf("DetectorOptions: %d options, want 4", n)
	}

	want := resilience.FallbackConfig{CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Minute}}
	if got := cfg.Store.FallbackConfig(); got.CircuitBreaker.MaxFailures != want.CircuitBreaker.MaxFailures ||
		got.CircuitBreaker.ResetTimeout != want.CircuitBreaker.ResetTimeout {
		t.Errorf("FallbackConfig = %+v", got)
	}
}
