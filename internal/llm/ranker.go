package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// SimpleLLMRanker orders initiative summaries for the roadmap view by asking
// the LLM which ones matter most for a given narrative focus.
type SimpleLLMRanker struct {
	LLM LLMClient
}

func NewSimpleLLMRanker(client LLMClient) *SimpleLLMRanker {
	return &SimpleLLMRanker{LLM: client}
}

func (r *SimpleLLMRanker) Rank(ctx context.Context, focus string, items []string) ([]int, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if len(items) == 1 {
		return []int{0}, nil
	}

	itemList := ""
	for i, it := range items {
		// Truncate very long summaries
		content := it
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		itemList += fmt.Sprintf("[%d] %s\n", i, content)
	}

	prompt := fmt.Sprintf(`You are planning the roadmap of a product backlog.
Narrative focus: %s

Initiatives:
%s

Order the initiatives above by how central they are to the narrative focus.
Output ONLY the indices of the initiatives in order, separated by commas.
Example: 0, 2, 1
Do not output any other text.`, focus, itemList)

	resp, err := r.LLM.Generate(ctx, prompt)
	if err != nil {
		// Fall back to stored order on error
		indices := make([]int, len(items))
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	return parseIndices(resp), nil
}

func parseIndices(s string) []int {
	re := regexp.MustCompile(`\d+`)
	matches := re.FindAllString(s, -1)
	var indices []int
	for _, m := range matches {
		if i, err := strconv.Atoi(m); err == nil {
			indices = append(indices, i)
		}
	}
	return indices
}
