package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DeepSeekBaseURL is the DeepSeek OpenAI-compatible endpoint.
const DeepSeekBaseURL = "https://api.deepseek.com/v1"

// CompatAdapter talks to any OpenAI-compatible chat completions endpoint.
// It serves DeepSeek and locally hosted models.
type CompatAdapter struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// compatRequest represents the OpenAI-compatible request format.
type compatRequest struct {
	Model       string          `json:"model"`
	Messages    []compatMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type compatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// compatResponse represents the OpenAI-compatible response format.
type compatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// CompatOption configures a CompatAdapter.
type CompatOption func(*CompatAdapter)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) CompatOption {
	return func(a *CompatAdapter) {
		a.httpClient = client
	}
}

// NewCompatAdapter creates an adapter named name for baseURL. apiKey may be
// empty for local servers.
func NewCompatAdapter(name, baseURL, apiKey string, opts ...CompatOption) (*CompatAdapter, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%s base URL is required", name)
	}
	a := &CompatAdapter{
		name:       name,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// NewDeepSeekAdapter creates a CompatAdapter for DeepSeek.
func NewDeepSeekAdapter(apiKey string) (*CompatAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek API key is required")
	}
	return NewCompatAdapter("deepseek", DeepSeekBaseURL, apiKey)
}

// Name returns the adapter identifier.
func (a *CompatAdapter) Name() string {
	return a.name
}

// Generate posts the conversation to /chat/completions.
func (a *CompatAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	messages := make([]compatMessage, 0, len(req.History)+1)
	for _, m := range req.History {
		messages = append(messages, compatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, compatMessage{Role: RoleUser, Content: req.Prompt})

	jsonBody, err := json.Marshal(compatRequest{
		Model:     req.Model.ProviderModel(),
		Messages:  messages,
		MaxTokens: defaultMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	baseURL := a.baseURL
	if req.Model.Endpoint != "" {
		baseURL = strings.TrimRight(req.Model.Endpoint, "/")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, &AdapterError{Provider: a.name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(a.name, resp.StatusCode, string(body))
	}

	var parsed compatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, &AdapterError{
			Provider: a.name,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s (type: %s, code: %s)", parsed.Error.Message, parsed.Error.Type, parsed.Error.Code),
		}
	}
	if len(parsed.Choices) == 0 {
		return nil, &AdapterError{Provider: a.name, Err: fmt.Errorf("returned no choices")}
	}

	return &Response{
		Content: parsed.Choices[0].Message.Content,
		Usage: &Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}
