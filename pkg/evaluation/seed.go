package evaluation

import (
	"sort"

	"github.com/zen-systems/routegate/pkg/models"
)

// SeedRecords returns the reference evaluation table for the built-in catalog.
func SeedRecords() []Record {
	return []Record{
		{"openai-gpt-4o", models.TaskSummarization, 9.2},
		{"openai-gpt-4o", models.TaskCoding, 8.8},
		{"openai-gpt-4o", models.TaskMath, 9.0},
		{"openai-gpt-4o", models.TaskReasoning, 9.5},
		{"openai-gpt-4o", models.TaskCreative, 8.9},
		{"openai-gpt-4o", models.TaskSimpleQuery, 8.7},

		{"anthropic-claude-3-sonnet", models.TaskSummarization, 9.3},
		{"anthropic-claude-3-sonnet", models.TaskCoding, 8.5},
		{"anthropic-claude-3-sonnet", models.TaskMath, 8.7},
		{"anthropic-claude-3-sonnet", models.TaskReasoning, 9.4},
		{"anthropic-claude-3-sonnet", models.TaskCreative, 9.2},
		{"anthropic-claude-3-sonnet", models.TaskSimpleQuery, 8.8},

		{"local-mistral-7b", models.TaskSummarization, 7.5},
		{"local-mistral-7b", models.TaskCoding, 6.9},
		{"local-mistral-7b", models.TaskMath, 6.8},
		{"local-mistral-7b", models.TaskReasoning, 7.0},
		{"local-mistral-7b", models.TaskCreative, 7.2},
		{"local-mistral-7b", models.TaskSimpleQuery, 8.1},

		{"deepseek-coder", models.TaskCoding, 9.1},
		{"deepseek-coder", models.TaskMath, 8.5},

		{"openai-gpt-3.5-turbo", models.TaskSummarization, 8.4},
		{"openai-gpt-3.5-turbo", models.TaskCoding, 8.0},
		{"openai-gpt-3.5-turbo", models.TaskSimpleQuery, 8.5},
	}
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].ModelID == records[j].ModelID {
			return records[i].TaskType < records[j].TaskType
		}
		return records[i].ModelID < records[j].ModelID
	})
}
