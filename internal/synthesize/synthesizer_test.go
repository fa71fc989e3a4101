package synthesize

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ILoveScratch2/LLM-Reviewer/internal/llm"
)

// captureExecutor records the requests it receives and returns a canned
// response or error.
type captureExecutor struct {
	requests []llm.Request
	response string
	err      error
}

func (c *captureExecutor) Generate(ctx context.Context, req llm.Request) (string, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *captureExecutor) Name() string { return "capture" }

func TestSynthesizeNothingToDo(t *testing.T) {
	exec := &captureExecutor{response: "unused"}
	s := New(exec, Config{}, zerolog.Nop())

	report, ok, err := s.Synthesize(context.Background(), []string{"", "  ", "\n"})

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", report)
	assert.Empty(t, exec.requests, "no request may be issued for an empty result set")
}

func TestSynthesizeJoinsResultsInOrder(t *testing.T) {
	exec := &captureExecutor{response: "# Final report"}
	s := New(exec, Config{Temperature: 0.1, MaxTokens: 2048}, zerolog.Nop())

	report, ok, err := s.Synthesize(context.Background(), []string{
		"findings for chunk one",
		"", // failed chunk, filtered out
		"findings for chunk two",
	})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "# Final report", report)

	require.Len(t, exec.requests, 1)
	req := exec.requests[0]
	assert.Equal(t, "findings for chunk one"+Separator+"findings for chunk two", req.Prompt)
	assert.Equal(t, 0.1, req.Temperature)
	assert.Equal(t, 2048, req.MaxTokens)
	assert.Contains(t, req.System, "group findings by component and file")
	assert.Contains(t, req.System, "Use only\nthe supplied material")

	one := strings.Index(req.Prompt, "chunk one")
	two := strings.Index(req.Prompt, "chunk two")
	assert.Less(t, one, two, "chunk order must be preserved")
}

func TestSynthesizeFailureIsFatal(t *testing.T) {
	exec := &captureExecutor{err: fmt.Errorf("rate limit")}
	s := New(exec, Config{}, zerolog.Nop())

	report, ok, err := s.Synthesize(context.Background(), []string{"some findings"})

	assert.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", report)
}

func TestSynthesizeEmptyModelOutputIsFailure(t *testing.T) {
	exec := &captureExecutor{response: "   \n"}
	s := New(exec, Config{}, zerolog.Nop())

	_, ok, err := s.Synthesize(context.Background(), []string{"some findings"})

	assert.Error(t, err)
	assert.False(t, ok)
}
