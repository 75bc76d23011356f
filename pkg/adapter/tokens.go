package adapter

import (
	"math"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is cl100k_base, a reasonable approximation across providers.
const DefaultEncoding = "cl100k_base"

// TokenCounter estimates token counts for text.
type TokenCounter interface {
	Count(text string) int
}

// CharCounter estimates four characters per token.
type CharCounter struct{}

// Count returns round(chars/4).
func (CharCounter) Count(text string) int {
	return int(math.Round(float64(utf8.RuneCountInString(text)) / 4))
}

// TiktokenCounter counts tokens with a BPE encoding, falling back to
// CharCounter when the encoding could not be loaded.
type TiktokenCounter struct {
	mu       sync.Mutex
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter loads DefaultEncoding. The returned counter is always
// usable; err reports why it degraded to character estimates.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return &TiktokenCounter{}, err
	}
	return &TiktokenCounter{encoding: enc}, nil
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	if c == nil || c.encoding == nil {
		return CharCounter{}.Count(text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.encoding.Encode(text, nil, nil))
}

func estimateUsage(counter TokenCounter, prompt, content string) Usage {
	in := counter.Count(prompt)
	out := counter.Count(content)
	return Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}
}
