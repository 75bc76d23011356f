package adapter

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAdapter implements the Adapter interface for OpenAI models.
type OpenAIAdapter struct {
	client openai.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter.
func NewOpenAIAdapter(apiKey string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Generate sends the conversation to OpenAI chat completions.
func (a *OpenAIAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+1)
	for _, m := range req.History {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(req.Model.ProviderModel()),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(defaultMaxTokens),
	})
	if err != nil {
		return nil, &AdapterError{Provider: a.Name(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &AdapterError{Provider: a.Name(), Err: fmt.Errorf("returned no choices")}
	}

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Usage: &Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}
