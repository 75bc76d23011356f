package adapter

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter returns deterministic responses for local runs and tests.
// Responses and failures are keyed by registry model id.
type MockAdapter struct {
	mu              sync.Mutex
	responses       map[string]string
	failures        map[string]error
	defaultResponse string
	calls           []string
	Usage           *Usage
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		failures:        make(map[string]error),
		defaultResponse: "mock response:",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined responses.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	a := NewMockAdapter()
	for id, r := range responses {
		a.responses[id] = r
	}
	if defaultResponse != "" {
		a.defaultResponse = defaultResponse
	}
	return a
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Respond scripts the content returned for modelID.
func (a *MockAdapter) Respond(modelID, content string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responses[modelID] = content
}

// Fail makes every call for modelID return err.
func (a *MockAdapter) Fail(modelID string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.failures, modelID)
		return
	}
	a.failures[modelID] = err
}

// Calls returns the model ids invoked so far, in order.
func (a *MockAdapter) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.calls))
	copy(out, a.calls)
	return out
}

// Generate returns the scripted response for the request's model.
func (a *MockAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	a.mu.Lock()
	a.calls = append(a.calls, req.Model.ID)
	failure := a.failures[req.Model.ID]
	response, ok := a.responses[req.Model.ID]
	defaultResponse := a.defaultResponse
	a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failure != nil {
		return nil, failure
	}
	if !ok {
		response = fmt.Sprintf("%s\n%s", defaultResponse, req.Prompt)
	}
	return &Response{Content: response, Usage: a.Usage}, nil
}
