package adapter

import (
	"context"

	"github.com/zen-systems/routegate/pkg/models"
)

// Message roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one prior turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single generation call against one model.
type Request struct {
	Model   models.ModelConfig
	Prompt  string
	History []Message
}

// Response wraps an adapter output and optional usage data.
type Response struct {
	Content string
	Usage   *Usage
}

// Adapter defines the interface for LLM provider adapters.
type Adapter interface {
	// Generate sends the request to the provider and returns its output.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name returns the adapter's identifier.
	Name() string
}
