package llm

import (
	"context"
	"strings"
)

type mockGenerator struct{}

// NewMockGenerator returns a Generator with canned output, for development
// without upstream credentials.
func NewMockGenerator() Generator {
	return &mockGenerator{}
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return "[mock completion for " + strings.TrimSpace(prompt) + "]", nil
}

func (m *mockGenerator) Summarize(ctx context.Context, text string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	words := strings.Fields(text)
	if len(words) > 10 {
		words = words[:10]
	}
	return "[mock summary: " + strings.Join(words, " ") + "]", nil
}
