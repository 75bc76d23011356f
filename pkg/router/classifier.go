package router

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/zen-systems/routegate/pkg/models"
)

const (
	reasoningBaseComplexity = 0.3
	reasoningMaxComplexity  = 0.9
)

// Classification is the task label and complexity estimate for a prompt.
type Classification struct {
	TaskType   models.TaskType `json:"taskType"`
	Complexity float64         `json:"complexity"`
	// Reason names the rule that fired.
	Reason string `json:"reason,omitempty"`
}

// Classify maps prompt text to a task type using case-insensitive keyword
// rules. It is total: prompts no rule matches are treated as reasoning,
// with complexity growing with length up to 0.9.
func Classify(prompt string) Classification {
	promptLower := strings.ToLower(prompt)
	length := utf8.RuneCountInString(prompt)

	for _, r := range classificationRules {
		trigger, ok := r.match(promptLower, length)
		if !ok {
			continue
		}
		reason := fmt.Sprintf("prompt shorter than %d characters", shortPromptRunes)
		if trigger != "" {
			reason = fmt.Sprintf("matched %q", trigger)
		}
		return Classification{TaskType: r.taskType, Complexity: r.complexity, Reason: reason}
	}

	complexity := math.Min(reasoningMaxComplexity, reasoningBaseComplexity+float64(length)/1000)
	return Classification{
		TaskType:   models.TaskReasoning,
		Complexity: complexity,
		Reason:     "no keyword matched; using reasoning",
	}
}
