package adapter

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/zen-systems/routegate/pkg/models"
)

// ErrSimulatedFailure is the provider error raised by SimulatedAdapter.
var ErrSimulatedFailure = errors.New("model API error")

// SimulatedAdapter stands in for real providers. Each call fails with
// probability 1-successRate and otherwise sleeps for the model's average
// latency jittered into [0.7, 1.3].
type SimulatedAdapter struct {
	mu           sync.Mutex
	rng          *rand.Rand
	latencyScale float64
	counter      TokenCounter
}

// SimulatedOption configures a SimulatedAdapter.
type SimulatedOption func(*SimulatedAdapter)

// WithSeed makes failures and latencies reproducible.
func WithSeed(seed uint64) SimulatedOption {
	return func(a *SimulatedAdapter) {
		a.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithLatencyScale multiplies simulated latency. Zero disables sleeping.
func WithLatencyScale(scale float64) SimulatedOption {
	return func(a *SimulatedAdapter) {
		if scale >= 0 {
			a.latencyScale = scale
		}
	}
}

// WithTokenCounter sets the counter used for usage accounting.
func WithTokenCounter(counter TokenCounter) SimulatedOption {
	return func(a *SimulatedAdapter) {
		if counter != nil {
			a.counter = counter
		}
	}
}

// NewSimulatedAdapter creates a simulated adapter.
func NewSimulatedAdapter(opts ...SimulatedOption) *SimulatedAdapter {
	a := &SimulatedAdapter{
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		latencyScale: 1,
		counter:      CharCounter{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the adapter identifier.
func (a *SimulatedAdapter) Name() string {
	return "simulated"
}

// Generate simulates one provider call for req.Model.
func (a *SimulatedAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model

	a.mu.Lock()
	roll := a.rng.Float64()
	jitter := 0.7 + a.rng.Float64()*0.6
	a.mu.Unlock()

	if roll > model.SuccessRate {
		return nil, &AdapterError{Provider: model.Provider, Temporary: true, Err: ErrSimulatedFailure}
	}

	delay := time.Duration(float64(model.AverageLatency) * jitter * a.latencyScale * float64(time.Millisecond))
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	content := simulatedContent(model, req.Prompt)
	usage := estimateUsage(a.counter, req.Prompt, content)
	return &Response{Content: content, Usage: &usage}, nil
}

func simulatedContent(model models.ModelConfig, prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "hello") || isGreeting(lower):
		return fmt.Sprintf("Hello! I'm %s by %s. How can I assist you today?", model.Name, model.Provider)
	case strings.Contains(lower, "code") || strings.Contains(lower, "function"):
		if model.Tier >= models.TierBalanced {
			return "Here's a solution to your coding problem:\n\n```go\nfunc doubleAbove(in []int) []int {\n\tvar out []int\n\tfor _, x := range in {\n\t\tif x*2 > 10 {\n\t\t\tout = append(out, x*2)\n\t\t}\n\t}\n\treturn out\n}\n```\n\nThis doubles each element and keeps only values greater than 10."
		}
		return "I'll try to help with your coding question. A loop that transforms each element and then filters the results should process your data efficiently."
	case strings.Contains(lower, "math") || strings.Contains(lower, "calculate"):
		if model.Tier >= models.TierAdvanced {
			return "For this math problem, we need the following approach:\n\nStep 1: Set up the equation 3x² + 7x - 2 = 0\nStep 2: Apply the quadratic formula x = (-7 ± √(49+24))/6\nStep 3: Simplify to get x ≈ 0.27 or x ≈ -2.44"
		}
		return "To solve this math problem, I'd recommend the quadratic formula since it appears to be a quadratic equation."
	}

	switch model.Tier {
	case models.TierLocal:
		return fmt.Sprintf("Based on my understanding, %s... is about something I can provide basic information on. Since I'm a locally hosted model, I have limited but private computation.", excerpt(prompt, 20))
	case models.TierFast:
		return fmt.Sprintf("I understand you're asking about %s... Here's a quick response that addresses your question efficiently without too much detail.", excerpt(prompt, 30))
	case models.TierBalanced:
		return fmt.Sprintf("Regarding your question about %s... I've analyzed this from several perspectives and can provide a nuanced answer that balances depth and conciseness.", excerpt(prompt, 40))
	case models.TierAdvanced:
		return fmt.Sprintf("I've carefully considered your query about %s... and can offer an in-depth analysis with multiple perspectives and evidence-based reasoning.", excerpt(prompt, 50))
	case models.TierPremium:
		return fmt.Sprintf("Your inquiry about %s... requires sophisticated analysis. Here's a comprehensive response that considers multiple domains of knowledge, potential objections, and nuanced implications of this topic.", excerpt(prompt, 60))
	default:
		return "I've processed your request and have a response for you."
	}
}

func isGreeting(lower string) bool {
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '!' || r == '.' || r == '?'
	}) {
		if word == "hi" || word == "hey" {
			return true
		}
	}
	return false
}

func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
