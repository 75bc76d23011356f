package transcript

import (
	"time"

	"github.com/google/uuid"

	"github.com/zen-systems/routegate/pkg/adapter"
	"github.com/zen-systems/routegate/pkg/executor"
	"github.com/zen-systems/routegate/pkg/models"
	"github.com/zen-systems/routegate/pkg/router"
)

// Message is one chat transcript record.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ModelID   string    `json:"modelId,omitempty"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// Metadata describes how an assistant message was produced.
type Metadata struct {
	// RoutingTime and ExecutionTime are in milliseconds.
	RoutingTime   float64                `json:"routingTime"`
	ExecutionTime float64                `json:"executionTime"`
	ModelName     string                 `json:"modelName,omitempty"`
	Provider      string                 `json:"provider,omitempty"`
	Tokens        *adapter.Usage         `json:"tokens,omitempty"`
	Routing       *Routing               `json:"routing,omitempty"`
	Error         *executor.OutcomeError `json:"error,omitempty"`
}

// Routing is the routing decision attached to an assistant message.
type Routing struct {
	TaskType        models.TaskType       `json:"taskType"`
	Complexity      float64               `json:"complexity"`
	CandidateModels []router.RoutingScore `json:"candidateModels"`
	SelectedModel   string                `json:"selectedModel"`
	Fallbacks       []string              `json:"fallbacks,omitempty"`
}

// NewUserMessage records a prompt.
func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      adapter.RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewRouting builds routing metadata from a decision and its fallback chain.
func NewRouting(result *router.Result, fallbacks []string) *Routing {
	if result == nil {
		return nil
	}
	candidates := make([]router.RoutingScore, len(result.Scores))
	copy(candidates, result.Scores)
	return &Routing{
		TaskType:        result.TaskType,
		Complexity:      result.Complexity,
		CandidateModels: candidates,
		SelectedModel:   result.SelectedModelID,
		Fallbacks:       fallbacks,
	}
}

// NewAssistantMessage records an execution outcome. ModelID is the model
// that actually served the request. Failed outcomes carry the error
// message as content and no model.
func NewAssistantMessage(result *router.Result, fallbacks []string, outcome *executor.Outcome, registry *models.Registry) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      adapter.RoleAssistant,
		Timestamp: time.Now().UTC(),
		Metadata:  &Metadata{Routing: NewRouting(result, fallbacks)},
	}
	if result != nil {
		msg.Metadata.RoutingTime = milliseconds(result.RoutingTime)
	}
	if outcome == nil {
		return msg
	}

	msg.Metadata.ExecutionTime = milliseconds(outcome.Latency)
	if !outcome.Success {
		msg.Content = outcome.Error.Message
		msg.Metadata.Error = outcome.Error
		return msg
	}

	msg.Content = outcome.Content
	msg.ModelID = outcome.ModelID
	usage := outcome.Usage
	msg.Metadata.Tokens = &usage
	if registry != nil {
		if model, ok := registry.Get(outcome.ModelID); ok {
			msg.Metadata.ModelName = model.Name
			msg.Metadata.Provider = model.Provider
		}
	}
	return msg
}

// History converts prior transcript messages into adapter history.
// Failed assistant turns are left out.
func History(messages []Message) []adapter.Message {
	out := make([]adapter.Message, 0, len(messages))
	for _, m := range messages {
		if m.Metadata != nil && m.Metadata.Error != nil {
			continue
		}
		out = append(out, adapter.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
