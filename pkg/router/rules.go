package router

import (
	"strings"

	"github.com/zen-systems/routegate/pkg/models"
)

// shortPromptRunes is the length below which a prompt counts as a simple query.
const shortPromptRunes = 30

// rule is one entry of the classification decision list.
type rule struct {
	taskType   models.TaskType
	complexity float64
	triggers   []string
	// short also matches prompts shorter than shortPromptRunes.
	short bool
}

// Order matters: the first matching rule wins.
var classificationRules = []rule{
	{taskType: models.TaskCoding, complexity: 0.7, triggers: []string{"code", "function", "programming"}},
	{taskType: models.TaskMath, complexity: 0.6, triggers: []string{"math", "calculate", "equation"}},
	{taskType: models.TaskSummarization, complexity: 0.4, triggers: []string{"summary", "summarize", "summarise"}},
	{taskType: models.TaskCreative, complexity: 0.5, triggers: []string{"create", "write", "generate"}},
	{taskType: models.TaskSimpleQuery, complexity: 0.3, triggers: []string{"what", "where", "when", "who"}, short: true},
}

// match reports whether the rule applies. promptLower must already be lowercased.
func (r rule) match(promptLower string, length int) (string, bool) {
	if r.short && length < shortPromptRunes {
		return "", true
	}
	for _, trigger := range r.triggers {
		if strings.Contains(promptLower, trigger) {
			return trigger, true
		}
	}
	return "", false
}
