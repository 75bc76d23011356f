package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/routegate/pkg/evaluation"
	"github.com/zen-systems/routegate/pkg/router"
	"github.com/zen-systems/routegate/pkg/scoring"
)

// Execution modes.
const (
	ModeSimulated = "simulated"
	ModeLive      = "live"
)

// Evaluation sources.
const (
	SourceStatic = "static"
	SourceFile   = "file"
	SourceRedis  = "redis"
)

// RoutingConfig holds routing and execution behavior.
type RoutingConfig struct {
	UserTier        string            `yaml:"user_tier,omitempty"`
	SelectionPolicy string            `yaml:"selection_policy,omitempty"`
	Blend           string            `yaml:"blend,omitempty"`
	FallbackCount   *int              `yaml:"fallback_count,omitempty"`
	Signals         SignalsConfig     `yaml:"signals,omitempty"`
	Execution       ExecutionConfig   `yaml:"execution,omitempty"`
	Evaluations     EvaluationsConfig `yaml:"evaluations,omitempty"`
	RegistryPath    string            `yaml:"registry_path,omitempty"`
	Aliases         map[string]string `yaml:"aliases,omitempty"`
}

// SignalsConfig sets the operational scoring signals.
type SignalsConfig struct {
	Sentiment *float64 `yaml:"sentiment,omitempty"`
	// Load is the current system load in [0,1].
	Load *float64 `yaml:"load,omitempty"`
}

// ExecutionConfig controls how models are invoked.
type ExecutionConfig struct {
	Mode              string   `yaml:"mode,omitempty"`
	AttemptTimeoutMs  int      `yaml:"attempt_timeout_ms,omitempty"`
	RequestsPerSecond float64  `yaml:"requests_per_second,omitempty"`
	LatencyScale      *float64 `yaml:"latency_scale,omitempty"`
	Seed              uint64   `yaml:"seed,omitempty"`
}

// EvaluationsConfig selects the evaluation feed.
type EvaluationsConfig struct {
	Source    string `yaml:"source,omitempty"`
	Path      string `yaml:"path,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
	RedisKey  string `yaml:"redis_key,omitempty"`
	Watch     bool   `yaml:"watch,omitempty"`
	// Required rejects prompts until the first import succeeds.
	Required bool `yaml:"required,omitempty"`
}

// LoadRoutingConfig reads routing configuration from a YAML file.
func LoadRoutingConfig(path string) (*RoutingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg RoutingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyRoutingDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid routing config %s: %w", path, err)
	}
	return &cfg, nil
}

// DefaultRoutingConfig returns the default routing configuration.
func DefaultRoutingConfig() *RoutingConfig {
	cfg := &RoutingConfig{}
	applyRoutingDefaults(cfg)
	return cfg
}

func applyRoutingDefaults(cfg *RoutingConfig) {
	if cfg == nil {
		return
	}
	if cfg.UserTier == "" {
		cfg.UserTier = string(scoring.TierFree)
	}
	if cfg.SelectionPolicy == "" {
		cfg.SelectionPolicy = string(router.PolicyRank)
	}
	if cfg.Blend == "" {
		cfg.Blend = scoring.BlendAlways.String()
	}
	if cfg.FallbackCount == nil {
		n := 2
		cfg.FallbackCount = &n
	}
	defaults := scoring.DefaultSignals()
	if cfg.Signals.Sentiment == nil {
		v := defaults.Sentiment
		cfg.Signals.Sentiment = &v
	}
	if cfg.Signals.Load == nil {
		v := defaults.Load
		cfg.Signals.Load = &v
	}
	if cfg.Execution.Mode == "" {
		cfg.Execution.Mode = ModeSimulated
	}
	if cfg.Execution.LatencyScale == nil {
		v := 1.0
		cfg.Execution.LatencyScale = &v
	}
	if cfg.Evaluations.Source == "" {
		cfg.Evaluations.Source = SourceStatic
	}
	if cfg.Evaluations.RedisKey == "" {
		cfg.Evaluations.RedisKey = evaluation.DefaultRedisKey
	}
	if cfg.Aliases == nil {
		cfg.Aliases = make(map[string]string)
	}
}

// Validate checks every enumerated and bounded field.
func (c *RoutingConfig) Validate() error {
	if _, err := c.Tier(); err != nil {
		return err
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.BlendMode(); err != nil {
		return err
	}
	if c.FallbackCount != nil && *c.FallbackCount < 0 {
		return fmt.Errorf("fallback_count must be >= 0, got %d", *c.FallbackCount)
	}
	for name, v := range map[string]*float64{"signals.sentiment": c.Signals.Sentiment, "signals.load": c.Signals.Load} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be within [0,1], got %v", name, *v)
		}
	}
	switch c.Execution.Mode {
	case ModeSimulated, ModeLive:
	default:
		return fmt.Errorf("unknown execution mode %q", c.Execution.Mode)
	}
	if c.Execution.AttemptTimeoutMs < 0 || c.Execution.RequestsPerSecond < 0 {
		return fmt.Errorf("execution timeouts and rates must be >= 0")
	}
	if c.Execution.LatencyScale != nil && *c.Execution.LatencyScale < 0 {
		return fmt.Errorf("execution.latency_scale must be >= 0")
	}
	switch c.Evaluations.Source {
	case SourceStatic:
	case SourceFile:
		if c.Evaluations.Path == "" {
			return fmt.Errorf("evaluations.path is required for the file source")
		}
	case SourceRedis:
		if c.Evaluations.RedisAddr == "" {
			return fmt.Errorf("evaluations.redis_addr is required for the redis source")
		}
	default:
		return fmt.Errorf("unknown evaluation source %q", c.Evaluations.Source)
	}
	return nil
}

// Tier returns the parsed user tier.
func (c *RoutingConfig) Tier() (scoring.UserTier, error) {
	return scoring.ParseUserTier(c.UserTier)
}

// Policy returns the parsed selection policy.
func (c *RoutingConfig) Policy() (router.Policy, error) {
	return router.ParsePolicy(c.SelectionPolicy)
}

// BlendMode returns the parsed blend mode.
func (c *RoutingConfig) BlendMode() (scoring.BlendMode, error) {
	return scoring.ParseBlendMode(c.Blend)
}

// ScoringSignals returns the configured signals.
func (c *RoutingConfig) ScoringSignals() scoring.Signals {
	s := scoring.DefaultSignals()
	if c.Signals.Sentiment != nil {
		s.Sentiment = *c.Signals.Sentiment
	}
	if c.Signals.Load != nil {
		s.Load = *c.Signals.Load
	}
	return s
}

// Fallbacks returns the configured fallback count.
func (c *RoutingConfig) Fallbacks() int {
	if c.FallbackCount == nil {
		return 2
	}
	return *c.FallbackCount
}

// AttemptTimeout returns the per-attempt timeout, zero for none.
func (c *RoutingConfig) AttemptTimeout() time.Duration {
	return time.Duration(c.Execution.AttemptTimeoutMs) * time.Millisecond
}

// Live reports whether models are invoked through real providers.
func (c *RoutingConfig) Live() bool {
	return strings.EqualFold(c.Execution.Mode, ModeLive)
}
