package config

// ConfigDiff describes what changed between two configs.
// Hot-reloadable changes are flagged individually; everything else is listed
// in RestartRequired so the caller can warn about it.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// SelectorChanged is true when selector thresholds, the diversity penalty
	// or the search budget changed.
	SelectorChanged bool

	// AmbientChanged is true when a storyline threshold or the storyline
	// limit changed.
	AmbientChanged bool

	// RestartRequired names the changed settings that only take effect after
	// a restart, in a stable order.
	RestartRequired []string
}

// IsEmpty reports whether nothing changed.
func (d ConfigDiff) IsEmpty() bool {
	return !d.LogLevelChanged && !d.SelectorChanged && !d.AmbientChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	oldSel, newSel := old.Selector, new.Selector
	if oldSel.ConfidenceThreshold != newSel.ConfidenceThreshold ||
		oldSel.TensionThreshold != newSel.TensionThreshold ||
		oldSel.DiversityPenalty != newSel.DiversityPenalty ||
		old.Search != new.Search {
		d.SelectorChanged = true
	}

	if old.Ambient != new.Ambient {
		d.AmbientChanged = true
	}

	restart := func(name string, changed bool) {
		if changed {
			d.RestartRequired = append(d.RestartRequired, name)
		}
	}
	restart("server.listen_addr", old.Server.ListenAddr != new.Server.ListenAddr)
	restart("server.tls", !sameTLS(old.Server.TLS, new.Server.TLS))
	restart("simulation", old.Simulation != new.Simulation)
	restart("memory", old.Memory != new.Memory)
	restart("relationships", old.Relationships != new.Relationships)
	restart("intent", !sameIntent(old.Intent, new.Intent))
	restart("selector.diversity_window", oldSel.DiversityWindow != newSel.DiversityWindow)
	restart("store", old.Store != new.Store)

	return d
}

func sameTLS(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameIntent(a, b IntentConfig) bool {
	fuzzy := func(c IntentConfig) bool { return c.Fuzzy == nil || *c.Fuzzy }
	return a.MaxInputBytes == b.MaxInputBytes &&
		a.MaxRun == b.MaxRun &&
		a.MaxTokens == b.MaxTokens &&
		fuzzy(a) == fuzzy(b)
}
