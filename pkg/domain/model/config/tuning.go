package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Matching tunes the three-tier tag matcher
type Matching struct {
	FuzzyMaxDistance  int     `toml:"fuzzy_max_distance"`
	FuzzyConfidence   float64 `toml:"fuzzy_confidence"`
	SemanticThreshold float64 `toml:"semantic_threshold"`
}

// Memory tunes memory deduplication and deletion
type Memory struct {
	DuplicateThreshold     float64 `toml:"duplicate_threshold"`
	DuplicateSearchLimit   int     `toml:"duplicate_search_limit"`
	SemanticDeleteLimit    int     `toml:"semantic_delete_limit"`
	SemanticDeleteMinScore float64 `toml:"semantic_delete_min_score"`
}

// Prompt tunes system prompt assembly
type Prompt struct {
	IdentityMemoryRatio    float64 `toml:"identity_memory_ratio"`
	ContextualMemoryLimit  int     `toml:"contextual_memory_limit"`
	ContextFullRatio       float64 `toml:"context_full_ratio"`
	LowQualitySearchScore  float64 `toml:"low_quality_search_score"`
	LowQualitySearchStreak int     `toml:"low_quality_search_streak"`
	DefaultContextWindow   int     `toml:"default_context_window"`
}

// Duration is a time.Duration decoded from strings such as "10s"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return goerr.Wrap(err, "invalid duration", goerr.V("value", string(text)))
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Embedding configures embedding generation
type Embedding struct {
	Dimension int      `toml:"dimension"`
	Timeout   Duration `toml:"timeout"`
}

// Cascade tunes cascade execution
type Cascade struct {
	Concurrency int `toml:"concurrency"`
}

// Tuning holds every tunable of the core
type Tuning struct {
	Matching  Matching  `toml:"matching"`
	Memory    Memory    `toml:"memory"`
	Prompt    Prompt    `toml:"prompt"`
	Embedding Embedding `toml:"embedding"`
	Cascade   Cascade   `toml:"cascade"`
}

// DefaultTuning returns the production defaults
func DefaultTuning() *Tuning {
	return &Tuning{
		Matching: Matching{
			FuzzyMaxDistance:  2,
			FuzzyConfidence:   0.9,
			SemanticThreshold: 0.85,
		},
		Memory: Memory{
			DuplicateThreshold:     0.85,
			DuplicateSearchLimit:   5,
			SemanticDeleteLimit:    10,
			SemanticDeleteMinScore: 0.75,
		},
		Prompt: Prompt{
			IdentityMemoryRatio:    0.10,
			ContextualMemoryLimit:  10,
			ContextFullRatio:       0.75,
			LowQualitySearchScore:  0.5,
			LowQualitySearchStreak: 3,
			DefaultContextWindow:   128000,
		},
		Embedding: Embedding{
			Dimension: 1536,
			Timeout:   Duration{10 * time.Second},
		},
		Cascade: Cascade{
			Concurrency: 16,
		},
	}
}

func inUnitRange(v float64) bool {
	return v > 0 && v <= 1
}

// Validate checks that every value is usable
func (t *Tuning) Validate() error {
	if t.Matching.FuzzyMaxDistance < 0 {
		return goerr.New("fuzzy_max_distance must not be negative", goerr.V("value", t.Matching.FuzzyMaxDistance))
	}
	if !inUnitRange(t.Matching.FuzzyConfidence) {
		return goerr.New("fuzzy_confidence must be in (0, 1]", goerr.V("value", t.Matching.FuzzyConfidence))
	}
	if !inUnitRange(t.Matching.SemanticThreshold) {
		return goerr.New("semantic_threshold must be in (0, 1]", goerr.V("value", t.Matching.SemanticThreshold))
	}
	if !inUnitRange(t.Memory.DuplicateThreshold) {
		return goerr.New("duplicate_threshold must be in (0, 1]", goerr.V("value", t.Memory.DuplicateThreshold))
	}
	if t.Memory.DuplicateSearchLimit <= 0 {
		return goerr.New("duplicate_search_limit must be positive", goerr.V("value", t.Memory.DuplicateSearchLimit))
	}
	if t.Memory.SemanticDeleteLimit <= 0 {
		return goerr.New("semantic_delete_limit must be positive", goerr.V("value", t.Memory.SemanticDeleteLimit))
	}
	if !inUnitRange(t.Memory.SemanticDeleteMinScore) {
		return goerr.New("semantic_delete_min_score must be in (0, 1]", goerr.V("value", t.Memory.SemanticDeleteMinScore))
	}
	if !inUnitRange(t.Prompt.IdentityMemoryRatio) {
		return goerr.New("identity_memory_ratio must be in (0, 1]", goerr.V("value", t.Prompt.IdentityMemoryRatio))
	}
	if !inUnitRange(t.Prompt.ContextFullRatio) {
		return goerr.New("context_full_ratio must be in (0, 1]", goerr.V("value", t.Prompt.ContextFullRatio))
	}
	if t.Prompt.DefaultContextWindow <= 0 {
		return goerr.New("default_context_window must be positive", goerr.V("value", t.Prompt.DefaultContextWindow))
	}
	if t.Embedding.Dimension <= 0 {
		return goerr.New("embedding dimension must be positive", goerr.V("value", t.Embedding.Dimension))
	}
	if t.Embedding.Timeout.Duration <= 0 {
		return goerr.New("embedding timeout must be positive", goerr.V("value", t.Embedding.Timeout))
	}
	if t.Cascade.Concurrency <= 0 {
		return goerr.New("cascade concurrency must be positive", goerr.V("value", t.Cascade.Concurrency))
	}
	return nil
}
