// Package config defines and loads the Playlist Synchronization Core's
// runtime configuration (spec.md §6).
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Configuration is the complete set of tunables spec.md §6 enumerates.
type Configuration struct {
	// MaxGlobalSyncConcurrency bounds how many SyncJobs the Job Queue runs
	// at once, across all adapters.
	MaxGlobalSyncConcurrency int `mapstructure:"maxGlobalSyncConcurrency" koanf:"maxGlobalSyncConcurrency"`

	// MaxPerAdapterConcurrency bounds concurrent in-flight calls to any one
	// platform adapter.
	MaxPerAdapterConcurrency int `mapstructure:"maxPerAdapterConcurrency" koanf:"maxPerAdapterConcurrency"`

	// DefaultSyncMode is applied to a new PlaylistPlatformBinding when the
	// caller does not specify one.
	DefaultSyncMode string `mapstructure:"defaultSyncMode" koanf:"defaultSyncMode"`

	// MatchAutoThreshold and MatchCandidateThreshold parameterize the
	// Identity & Matching component (spec.md §4.1 step 4).
	MatchAutoThreshold      float64 `mapstructure:"matchAutoThreshold" koanf:"matchAutoThreshold"`
	MatchCandidateThreshold float64 `mapstructure:"matchCandidateThreshold" koanf:"matchCandidateThreshold"`

	// RetryMaxAttempts, RetryBaseDelayMs, RetryJitterRatio parameterize the
	// Rate Limiter's backoff policy (spec.md §4.8).
	RetryMaxAttempts int     `mapstructure:"retryMaxAttempts" koanf:"retryMaxAttempts"`
	RetryBaseDelayMs int     `mapstructure:"retryBaseDelayMs" koanf:"retryBaseDelayMs"`
	RetryJitterRatio float64 `mapstructure:"retryJitterRatio" koanf:"retryJitterRatio"`

	// TestModeEnabled and TestPrefixSet drive the Safety Gate's test-prefix
	// policy (spec.md §4.9): while test mode is enabled, only playlists whose
	// name starts with one of these prefixes may be mutated.
	TestModeEnabled bool     `mapstructure:"testModeEnabled" koanf:"testModeEnabled"`
	TestPrefixSet   []string `mapstructure:"testPrefixSet" koanf:"testPrefixSet"`

	// EmergencyStop, when true, causes the Safety Gate to reject every
	// change outright (spec.md §4.9).
	EmergencyStop bool `mapstructure:"emergencyStop" koanf:"emergencyStop"`

	// LogLevel controls the zerolog global level ("debug", "info", "warn",
	// "error").
	LogLevel string `mapstructure:"logLevel" koanf:"logLevel"`

	// DatabasePath is the SQLite file the Repository Layer opens.
	DatabasePath string `mapstructure:"databasePath" koanf:"databasePath"`
}

// Defaults returns the configuration defaults from spec.md §6.
func Defaults() Configuration {
	return Configuration{
		MaxGlobalSyncConcurrency: 2,
		MaxPerAdapterConcurrency: 1,
		DefaultSyncMode:          "full_bidirectional",
		MatchAutoThreshold:       0.82,
		MatchCandidateThreshold:  0.60,
		RetryMaxAttempts:         5,
		RetryBaseDelayMs:         250,
		RetryJitterRatio:         0.2,
		TestModeEnabled:          false,
		TestPrefixSet:            []string{"🧪", "[TEST]", "SELECTA_TEST_"},
		EmergencyStop:            false,
		LogLevel:                 "info",
		DatabasePath:             "selecta.db",
	}
}

// Load builds a Configuration the way the teacher loads its Configuration:
// struct defaults, then an optional YAML file, then environment variable
// overrides — each layer only overriding keys it actually sets.
//
// Env vars are read with the SELECTA_ prefix; the rest of the name is
// matched case-insensitively against the configuration keys, e.g.
// SELECTA_MAXGLOBALSYNCCONCURRENCY=4 sets maxGlobalSyncConcurrency.
func Load(path string) (Configuration, error) {
	k := koanf.New(".")

	defaults := Defaults()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return Configuration{}, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Configuration{}, fmt.Errorf("config: loading file %q: %w", path, err)
		}
	}

	keyByLower := make(map[string]string)
	for _, key := range k.Keys() {
		keyByLower[strings.ToLower(key)] = key
	}
	envProvider := env.Provider("SELECTA_", ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, "SELECTA_"))
		if key, ok := keyByLower[lower]; ok {
			return key
		}
		return lower
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Configuration{}, fmt.Errorf("config: loading env: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return Configuration{}, fmt.Errorf("config: unmarshalling: %w", err)
	}
	return cfg, nil
}

// HasTestPrefix reports whether name starts with any configured test prefix.
func (c Configuration) HasTestPrefix(name string) bool {
	for _, prefix := range c.TestPrefixSet {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
