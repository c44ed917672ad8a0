package config

import (
	"errors"
	"fmt"
	"io"
	"os"

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

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
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

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Memory storage.
	switch cfg.Storage.Memories.Backend {
	case "", BackendMemory:
	case BackendPostgres:
		if cfg.Storage.Memories.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.memories.postgres_dsn is required when backend is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.memories.backend %q is invalid; valid values: memory, postgres", cfg.Storage.Memories.Backend))
	}
	if cfg.Storage.Memories.EmbeddingDimensions < 0 {
		errs = append(errs, fmt.Errorf("storage.memories.embedding_dimensions %d must not be negative", cfg.Storage.Memories.EmbeddingDimensions))
	}

	// Relation storage.
	switch cfg.Storage.Relations.Backend {
	case "", BackendMemory:
	case BackendSQLite:
		if cfg.Storage.Relations.SQLitePath == "" {
			errs = append(errs, errors.New("storage.relations.sqlite_path is required when backend is sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.relations.backend %q is invalid; valid values: memory, sqlite", cfg.Storage.Relations.Backend))
	}

	// Memory tuning. The threshold is a score in [0, 1]; weights are either
	// all defaulted (all zero) or must be non-negative.
	if cfg.Memory.SignificanceThreshold < 0 || cfg.Memory.SignificanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("memory.significance_threshold %v is out of range [0, 1]", cfg.Memory.SignificanceThreshold))
	}
	if cfg.Memory.RecencyHalfLife < 0 {
		errs = append(errs, errors.New("memory.recency_half_life must not be negative"))
	}
	for name, w := range map[string]float64{
		"memory.weight_importance": cfg.Memory.WeightImportance,
		"memory.weight_recency":    cfg.Memory.WeightRecency,
		"memory.weight_relevance":  cfg.Memory.WeightRelevance,
		"memory.weight_emotion":    cfg.Memory.WeightEmotion,
	} {
		if w < 0 {
			errs = append(errs, fmt.Errorf("%s %v must not be negative", name, w))
		}
	}

	if cfg.Decision.TopK < 0 {
		errs = append(errs, fmt.Errorf("decision.top_k %d must not be negative", cfg.Decision.TopK))
	}

	return errors.Join(errs...)
}
