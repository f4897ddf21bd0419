package proposal

import (
	"context"
)

// MockLLMClient returns a canned response, for tests.
type MockLLMClient struct {
	Response string
	Err      error

	LastPrompt string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.LastPrompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
