package models

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrModelNotFound is returned when a model id is not in the registry.
var ErrModelNotFound = errors.New("model not found")

// Registry is the read-only catalog of candidate models. It is safe for
// concurrent use because it is never mutated after construction.
type Registry struct {
	models []ModelConfig
	index  map[string]int
}

type registryFile struct {
	Models []ModelConfig `yaml:"models"`
}

// NewRegistry validates configs and builds a registry preserving their order.
func NewRegistry(configs []ModelConfig) (*Registry, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("registry requires at least one model")
	}

	r := &Registry{
		models: make([]ModelConfig, 0, len(configs)),
		index:  make(map[string]int, len(configs)),
	}
	for _, cfg := range configs {
		if err := validateModel(cfg); err != nil {
			return nil, err
		}
		if _, dup := r.index[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate model id %q", cfg.ID)
		}
		r.index[cfg.ID] = len(r.models)
		r.models = append(r.models, cfg.clone())
	}
	return r, nil
}

func validateModel(cfg ModelConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("model id is required")
	}
	if _, ok := tierNames[cfg.Tier]; !ok {
		return fmt.Errorf("model %q: unknown tier", cfg.ID)
	}
	if cfg.CostPerToken < 0 {
		return fmt.Errorf("model %q: cost_per_token must be >= 0", cfg.ID)
	}
	if cfg.AverageLatency <= 0 {
		return fmt.Errorf("model %q: average_latency_ms must be > 0", cfg.ID)
	}
	if cfg.SuccessRate < 0 || cfg.SuccessRate > 1 {
		return fmt.Errorf("model %q: success_rate must be within [0,1]", cfg.ID)
	}
	return nil
}

// LoadRegistry reads a model catalog from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return NewRegistry(file.Models)
}

// Get returns the model with the given id.
func (r *Registry) Get(id string) (ModelConfig, bool) {
	idx, ok := r.index[id]
	if !ok {
		return ModelConfig{}, false
	}
	return r.models[idx].clone(), true
}

// Lookup is Get with an ErrModelNotFound error for unknown ids.
func (r *Registry) Lookup(id string) (ModelConfig, error) {
	m, ok := r.Get(id)
	if !ok {
		return ModelConfig{}, fmt.Errorf("model with ID %s: %w", id, ErrModelNotFound)
	}
	return m, nil
}

// List returns all models in registry order.
func (r *Registry) List() []ModelConfig {
	out := make([]ModelConfig, len(r.models))
	for i, m := range r.models {
		out[i] = m.clone()
	}
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return len(r.models)
}

// DefaultRegistry returns the built-in catalog.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultModels())
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultModels returns the built-in model catalog in routing order.
func DefaultModels() []ModelConfig {
	return []ModelConfig{
		{
			ID:             "local-mistral-7b",
			Name:           "Mistral 7B",
			Provider:       "Local",
			Tier:           TierLocal,
			Description:    "Locally hosted 7B parameter model",
			Strengths:      []string{"Fast responses", "No data sharing", "No cost per token"},
			Weaknesses:     []string{"Limited reasoning", "Less accurate on complex tasks"},
			CostPerToken:   0,
			AverageLatency: 500,
			SuccessRate:    0.95,
			PreferredTasks: []TaskType{TaskSimpleQuery, TaskSummarization},
			APIModel:       "mistral-7b-instruct",
			Endpoint:       "http://localhost:8000/v1",
		},
		{
			ID:             "openai-gpt-3.5-turbo",
			Name:           "GPT 3.5 Turbo",
			Provider:       "OpenAI",
			Tier:           TierFast,
			Description:    "Fast, affordable model good for many tasks",
			Strengths:      []string{"Fast responses", "Good general knowledge", "Affordable"},
			Weaknesses:     []string{"Less nuanced reasoning", "Occasional factual errors"},
			CostPerToken:   0.0001,
			AverageLatency: 800,
			SuccessRate:    0.98,
			PreferredTasks: []TaskType{TaskSimpleQuery, TaskSummarization, TaskCoding},
			APIModel:       "gpt-3.5-turbo",
		},
		{
			ID:             "deepseek-coder",
			Name:           "DeepSeek Coder",
			Provider:       "DeepSeek",
			Tier:           TierBalanced,
			Description:    "Specialized coding and technical model",
			Strengths:      []string{"Excellent coding abilities", "Technical understanding"},
			Weaknesses:     []string{"Less strong on general knowledge", "Creative limitations"},
			CostPerToken:   0.0002,
			AverageLatency: 1000,
			SuccessRate:    0.97,
			PreferredTasks: []TaskType{TaskCoding, TaskMath},
			APIModel:       "deepseek-coder",
			Endpoint:       "https://api.deepseek.com/v1",
		},
		{
			ID:             "anthropic-claude-3-sonnet",
			Name:           "Claude 3 Sonnet",
			Provider:       "Anthropic",
			Tier:           TierAdvanced,
			Description:    "Advanced reasoning and comprehension model",
			Strengths:      []string{"Strong reasoning", "Nuanced understanding", "Balanced performance"},
			Weaknesses:     []string{"Higher cost", "Variable latency"},
			CostPerToken:   0.0003,
			AverageLatency: 1200,
			SuccessRate:    0.985,
			PreferredTasks: []TaskType{TaskReasoning, TaskSummarization, TaskCreative},
			APIModel:       "claude-3-sonnet-20240229",
		},
		{
			ID:             "openai-gpt-4o",
			Name:           "GPT-4o",
			Provider:       "OpenAI",
			Tier:           TierPremium,
			Description:    "State-of-the-art model for complex reasoning and tasks",
			Strengths:      []string{"Excellent reasoning", "Strong across all task types", "High accuracy"},
			Weaknesses:     []string{"Higher cost", "Higher latency"},
			CostPerToken:   0.0005,
			AverageLatency: 2000,
			SuccessRate:    0.99,
			PreferredTasks: []TaskType{TaskReasoning, TaskCoding, TaskMath, TaskCreative},
			APIModel:       "gpt-4o",
		},
	}
}
