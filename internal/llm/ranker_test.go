package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLLM struct {
	response string
	err      error
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestRankParsesIndices(t *testing.T) {
	r := NewSimpleLLMRanker(&mockLLM{response: "2, 0, 1"})
	got, err := r.Rank(context.Background(), "finale", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, got)
}

func TestRankFallsBackToInputOrderOnError(t *testing.T) {
	r := NewSimpleLLMRanker(&mockLLM{err: errors.New("unavailable")})
	got, err := r.Rank(context.Background(), "finale", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestRankTrivialInputs(t *testing.T) {
	r := NewSimpleLLMRanker(&mockLLM{})

	got, err := r.Rank(context.Background(), "finale", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.Rank(context.Background(), "finale", []string{"only"})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func TestParseIndicesIgnoresNoise(t *testing.T) {
	assert.Equal(t, []int{1, 0}, parseIndices("Sure! Order: [1], then [0]."))
	assert.Nil(t, parseIndices("no numbers"))
}
