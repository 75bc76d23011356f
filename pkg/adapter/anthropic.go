package adapter

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 4096

// AnthropicAdapter implements the Adapter interface for Claude models.
type AnthropicAdapter struct {
	client anthropic.Client
}

// NewAnthropicAdapter creates a new Anthropic adapter.
func NewAnthropicAdapter(apiKey string) (*AnthropicAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// Generate sends the conversation to Claude.
func (a *AnthropicAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, m := range req.History {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)))

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model.ProviderModel()),
		MaxTokens: defaultMaxTokens,
		System:    system,
		Messages:  messages,
	})
	if err != nil {
		return nil, &AdapterError{Provider: a.Name(), Err: err}
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &Response{
		Content: content,
		Usage: &Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}
