package config

import (
	"maps"
	"slices"
)

// ConfigDiff describes what changed between two configs.
// Only the log level and ranking weights are applied live; every other
// change is listed in RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RankingChanged is true when any category or difficulty weight differs.
	RankingChanged bool

	// RestartRequired names the top-level sections whose changes only take
	// effect after a restart.
	RestartRequired []string
}

// Empty reports whether nothing changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.RankingChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if !maps.Equal(old.Ranking.CategoryWeights, new.Ranking.CategoryWeights) ||
		!maps.Equal(old.Ranking.DifficultyWeights, new.Ranking.DifficultyWeights) {
		d.RankingChanged = true
	}

	o, n := old.Server, new.Server
	if o.ListenAddr != n.ListenAddr || o.RateLimit != n.RateLimit ||
		o.BatchWorkers != n.BatchWorkers || o.BatchQueue != n.BatchQueue ||
		o.MaxBodyBytes != n.MaxBodyBytes || !slices.Equal(o.AllowedOrigins, n.AllowedOrigins) {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	if old.Extraction != new.Extraction {
		d.RestartRequired = append(d.RestartRequired, "extraction")
	}
	if old.Cache != new.Cache {
		d.RestartRequired = append(d.RestartRequired, "cache")
	}
	if !equalProviders(old.Providers, new.Providers) {
		d.RestartRequired = append(d.RestartRequired, "providers")
	}
	if old.Storage != new.Storage {
		d.RestartRequired = append(d.RestartRequired, "storage")
	}
	if old.Telemetry != new.Telemetry {
		d.RestartRequired = append(d.RestartRequired, "telemetry")
	}
	return d
}

func equalProviders(a, b ProvidersConfig) bool {
	if !equalEntry(a.LLM, b.LLM) || len(a.LLMFallbacks) != len(b.LLMFallbacks) {
		return false
	}
	for i := range a.LLMFallbacks {
		if !equalEntry(a.LLMFallbacks[i], b.LLMFallbacks[i]) {
			return false
		}
	}
	return true
}

// equalEntry compares entries by their scalar fields. Changes only inside
// Options are not detected.
func equalEntry(a, b ProviderEntry) bool {
	return a.Name == b.Name && a.APIKey == b.APIKey && a.BaseURL == b.BaseURL &&
		a.Model == b.Model && len(a.Options) == len(b.Options)
}
