package llm

import (
	"context"
)

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type RankerClient interface {
	Rank(ctx context.Context, focus string, items []string) ([]int, error)
}
