package config

import (
	"log/slog"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/ambient"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/intent"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/resilience"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/search"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/selector"
)

// SlogLevel converts l to a [slog.Level]. Unknown levels map to Info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RNG returns the random source for a fresh world.
func (c SimulationConfig) RNG() *rng.Rng {
	if c.SeedPhrase != "" {
		return rng.NewFromString(c.SeedPhrase)
	}
	return rng.New(c.Seed)
}

// DetectorOptions returns the intent detector options for c.
func (c IntentConfig) DetectorOptions() []intent.Option {
	opts := []intent.Option{
		intent.WithMaxInputBytes(c.MaxInputBytes),
		intent.WithMaxRun(c.MaxRun),
		intent.WithMaxTokens(c.MaxTokens),
	}
	if c.Fuzzy != nil {
		opts = append(opts, intent.WithFuzzy(*c.Fuzzy))
	}
	return opts
}

// Budget returns the search budget for c. Zero fields take the search
// package defaults.
func (c SearchConfig) Budget() search.Budget {
	return search.Budget{
		MaxIterations: c.MaxIterations,
		MaxExpansions: c.MaxExpansions,
		MaxTurns:      c.MaxTurns,
	}
}

// SelectorTunables merges the selector and search sections into the
// selector's runtime tunables. Zero fields keep the selector defaults.
func (c *Config) SelectorTunables() selector.Tunables {
	t := selector.DefaultTunables()
	if v := c.Selector.ConfidenceThreshold; v > 0 {
		t.ConfidenceThreshold = v
	}
	if v := c.Selector.TensionThreshold; v > 0 {
		t.TensionThreshold = v
	}
	if v := c.Selector.DiversityPenalty; v > 0 {
		t.DiversityPenalty = v
	}
	t.Budget = c.Search.Budget()
	t.SearchTimeout = c.Search.Timeout
	return t
}

// SelectorOptions returns the construction-time selector options for c.
func (c *Config) SelectorOptions() []selector.Option {
	t := c.SelectorTunables()
	opts := []selector.Option{
		selector.WithConfidenceThreshold(t.ConfidenceThreshold),
		selector.WithTensionThreshold(t.TensionThreshold),
		selector.WithSearchBudget(t.Budget, t.SearchTimeout),
	}
	if c.Selector.DiversityWindow > 0 {
		opts = append(opts, selector.WithDiversity(c.Selector.DiversityWindow, t.DiversityPenalty))
	}
	return opts
}

// AmbientOptions returns the ambient loop options for c. seed seeds the
// restlessness noise so that it follows the world seed.
func (c *Config) AmbientOptions(seed uint64) []ambient.Option {
	return []ambient.Option{
		ambient.WithInterestThreshold(c.Ambient.InterestThreshold),
		ambient.WithSwingThreshold(c.Ambient.SwingThreshold),
		ambient.WithMaxStorylines(c.Ambient.MaxStorylines),
		ambient.WithDecay(c.Relationships.DecayRate, c.Relationships.DecayEvery),
		ambient.WithSeed(int64(seed)),
	}
}

// FallbackConfig returns the circuit breaker settings for the store chain.
func (c StoreConfig) FallbackConfig() resilience.FallbackConfig {
	return resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  c.MaxFailures,
			ResetTimeout: c.ResetTimeout,
		},
	}
}
