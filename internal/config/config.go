package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete Aura core configuration. Every heuristic
// constant in the pipeline is a field here so none of them is
// load-bearing in code.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Routing RoutingConfig `yaml:"routing"`
	Assist  AssistConfig  `yaml:"assist"`
	LLM     LLMConfig     `yaml:"llm"`
	Log     LogConfig     `yaml:"log"`
}

// BackendConfig locates the capability backend and bounds how long each
// tool category may run.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout ceilings in seconds, per tool category.
	QuickTimeoutSec    int `yaml:"quick_timeout_sec"`
	SheetTimeoutSec    int `yaml:"sheet_timeout_sec"`
	DocumentTimeoutSec int `yaml:"document_timeout_sec"`
}

// RoutingConfig holds the router's scoring constants and any extra rules
// layered on top of the built-in set.
type RoutingConfig struct {
	ConfidenceCap          float64 `yaml:"confidence_cap"`
	FallbackConfidence     float64 `yaml:"fallback_confidence"`
	LowConfidenceThreshold float64 `yaml:"low_confidence_threshold"`

	// ExtraRules are appended after the built-in rules, so on a priority
	// tie the built-ins win.
	ExtraRules []RuleConfig `yaml:"extra_rules"`
}

// RuleConfig is a user-supplied routing rule. Patterns that fail to
// compile are skipped with a warning rather than aborting startup.
type RuleConfig struct {
	Tool     string   `yaml:"tool"`
	Triggers []string `yaml:"triggers"`
	Patterns []string `yaml:"patterns"`
	Priority int      `yaml:"priority"`
}

// AssistConfig bounds the in-process pipeline.
type AssistConfig struct {
	// MaxInflight caps concurrent dispatcher calls against the backend.
	MaxInflight int `yaml:"max_inflight"`
}

// LLMConfig enables the optional model-backed fallback resolver. Routing
// stays purely rule-based unless an API key is configured.
type LLMConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"` // supports ${VAR} expansion
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// LogConfig controls the zap logger built in cmd/aura.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:            "http://localhost:8000",
			QuickTimeoutSec:    10,
			SheetTimeoutSec:    30,
			DocumentTimeoutSec: 60,
		},
		Routing: RoutingConfig{
			ConfidenceCap:          0.95,
			FallbackConfidence:     0.30,
			LowConfidenceThreshold: 0.70,
		},
		Assist: AssistConfig{MaxInflight: 4},
		LLM:    LLMConfig{Model: "gpt-4o-mini"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads and parses a YAML config file, layering it over defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg.expand()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults loads config with fallback to default locations.
// Checks: ./aura.yaml, ./configs/aura.yaml, ~/.config/aura/aura.yaml,
// /etc/aura/aura.yaml. A missing file is not an error.
func LoadWithDefaults() (*Config, error) {
	locations := []string{
		"./aura.yaml",
		"./configs/aura.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "aura", "aura.yaml"))
	}
	locations = append(locations, "/etc/aura/aura.yaml")

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return Load(loc)
		}
	}

	cfg := Default()
	cfg.expand()
	return cfg, nil
}

func (c *Config) expand() {
	c.Backend.BaseURL = ExpandEnv(c.Backend.BaseURL)
	c.LLM.APIKey = ExpandEnv(c.LLM.APIKey)
	c.LLM.BaseURL = ExpandEnv(c.LLM.BaseURL)
}

// Validate checks config correctness.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Routing.ConfidenceCap <= 0 || c.Routing.ConfidenceCap > 1 {
		return fmt.Errorf("routing.confidence_cap must be in (0,1], got %v", c.Routing.ConfidenceCap)
	}
	if c.Routing.LowConfidenceThreshold < 0 || c.Routing.LowConfidenceThreshold > 1 {
		return fmt.Errorf("routing.low_confidence_threshold must be in [0,1], got %v", c.Routing.LowConfidenceThreshold)
	}
	if c.Routing.FallbackConfidence < 0 || c.Routing.FallbackConfidence > 1 {
		return fmt.Errorf("routing.fallback_confidence must be in [0,1], got %v", c.Routing.FallbackConfidence)
	}
	if c.Assist.MaxInflight < 1 {
		return fmt.Errorf("assist.max_inflight must be at least 1, got %d", c.Assist.MaxInflight)
	}
	for i, r := range c.Routing.ExtraRules {
		if r.Tool == "" {
			return fmt.Errorf("routing.extra_rules[%d]: tool is required", i)
		}
		if len(r.Triggers) == 0 && len(r.Patterns) == 0 {
			return fmt.Errorf("routing.extra_rules[%d]: at least one trigger or pattern is required", i)
		}
	}
	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.enabled requires llm.api_key")
	}
	return nil
}

// QuickTimeout returns the ceiling for quick-category tools.
func (c *BackendConfig) QuickTimeout() time.Duration {
	return time.Duration(c.QuickTimeoutSec) * time.Second
}

// SheetTimeout returns the ceiling for sheet-category tools.
func (c *BackendConfig) SheetTimeout() time.Duration {
	return time.Duration(c.SheetTimeoutSec) * time.Second
}

// DocumentTimeout returns the ceiling for document-category tools.
func (c *BackendConfig) DocumentTimeout() time.Duration {
	return time.Duration(c.DocumentTimeoutSec) * time.Second
}
