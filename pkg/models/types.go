package models

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TaskType is the closed set of prompt intents used for routing.
type TaskType string

const (
	TaskSimpleQuery   TaskType = "simple_query"
	TaskReasoning     TaskType = "reasoning"
	TaskCoding        TaskType = "coding"
	TaskMath          TaskType = "math"
	TaskSummarization TaskType = "summarization"
	TaskCreative      TaskType = "creative"
)

// AllTaskTypes returns every task type in declaration order.
func AllTaskTypes() []TaskType {
	return []TaskType{
		TaskSimpleQuery,
		TaskReasoning,
		TaskCoding,
		TaskMath,
		TaskSummarization,
		TaskCreative,
	}
}

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	for _, known := range AllTaskTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTaskType converts a string into a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown task type %q", s)
	}
	return t, nil
}

// UnmarshalYAML rejects task types outside the closed set.
func (t *TaskType) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTaskType(value.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ModelConfig describes one candidate model. Values are immutable once loaded
// into a Registry.
type ModelConfig struct {
	ID             string     `yaml:"id" json:"id"`
	Name           string     `yaml:"name" json:"name"`
	Provider       string     `yaml:"provider" json:"provider"`
	Tier           Tier       `yaml:"tier" json:"tier"`
	Description    string     `yaml:"description,omitempty" json:"description,omitempty"`
	Strengths      []string   `yaml:"strengths,omitempty" json:"strengths,omitempty"`
	Weaknesses     []string   `yaml:"weaknesses,omitempty" json:"weaknesses,omitempty"`
	CostPerToken   float64    `yaml:"cost_per_token" json:"cost_per_token"`
	AverageLatency float64    `yaml:"average_latency_ms" json:"average_latency_ms"`
	SuccessRate    float64    `yaml:"success_rate" json:"success_rate"`
	PreferredTasks []TaskType `yaml:"preferred_tasks" json:"preferred_tasks"`

	// APIModel is the provider-side model name used for live execution.
	APIModel string `yaml:"api_model,omitempty" json:"api_model,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// Prefers reports whether the model lists task among its preferred tasks.
func (m ModelConfig) Prefers(task TaskType) bool {
	for _, t := range m.PreferredTasks {
		if t == task {
			return true
		}
	}
	return false
}

// ProviderModel returns the name to send to the provider API.
func (m ModelConfig) ProviderModel() string {
	if m.APIModel != "" {
		return m.APIModel
	}
	return m.ID
}

func (m ModelConfig) clone() ModelConfig {
	c := m
	c.Strengths = append([]string(nil), m.Strengths...)
	c.Weaknesses = append([]string(nil), m.Weaknesses...)
	c.PreferredTasks = append([]TaskType(nil), m.PreferredTasks...)
	return c
}

// PerformanceLabel maps a success rate to a human-readable rating.
func PerformanceLabel(successRate float64) string {
	switch {
	case successRate >= 0.98:
		return "Excellent"
	case successRate >= 0.95:
		return "Very Good"
	case successRate >= 0.90:
		return "Good"
	case successRate >= 0.85:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}
