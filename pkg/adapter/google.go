package adapter

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GoogleAdapter implements the Adapter interface for Gemini models.
type GoogleAdapter struct {
	client *genai.Client
}

// NewGoogleAdapter creates a new Google Gemini adapter.
func NewGoogleAdapter(ctx context.Context, apiKey string) (*GoogleAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &GoogleAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *GoogleAdapter) Name() string {
	return "google"
}

// Generate sends the conversation to Gemini.
func (a *GoogleAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	var config *genai.GenerateContentConfig
	for _, m := range req.History {
		switch m.Role {
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		case RoleSystem:
			config = &genai.GenerateContentConfig{
				SystemInstruction: genai.NewContentFromText(m.Content, genai.RoleUser),
			}
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	resp, err := a.client.Models.GenerateContent(ctx, req.Model.ProviderModel(), contents, config)
	if err != nil {
		return nil, &AdapterError{Provider: a.Name(), Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &AdapterError{Provider: a.Name(), Err: fmt.Errorf("returned no candidates")}
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}

	out := &Response{Content: content}
	if md := resp.UsageMetadata; md != nil {
		out.Usage = &Usage{
			PromptTokens:     int(md.PromptTokenCount),
			CompletionTokens: int(md.CandidatesTokenCount),
			TotalTokens:      int(md.TotalTokenCount),
		}
	}
	return out, nil
}
