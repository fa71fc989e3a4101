package chunk

import (
	"regexp"
	"strings"

	"github.com/ILoveScratch2/LLM-Reviewer/pkg/models"
)

// TokenCounter estimates the size of content in model-input tokens. The
// counting scheme is provider-specific, so callers inject the implementation
// that matches their model.
type TokenCounter interface {
	CountTokens(content string) int
}

// SimpleTokenCounter is a basic implementation of TokenCounter that estimates
// tokens from word count and special characters. It is a heuristic rather
// than a model tokenizer, but it is monotonic under concatenation, which the
// chunker's greedy bound relies on.
type SimpleTokenCounter struct{}

var specialChars = regexp.MustCompile(`[.,!?;:(){}\[\]<>+\-*/=@#$%^&|~]`)

// CountTokens estimates the number of tokens in the given content.
func (c *SimpleTokenCounter) CountTokens(content string) int {
	words := strings.Fields(content)
	specialCount := len(specialChars.FindAllString(content, -1))
	return len(words) + specialCount
}

// UnitTokens measures one change unit: path plus patch text, matching what
// ends up in an analysis prompt.
func UnitTokens(counter TokenCounter, unit models.ChangeUnit) int {
	return counter.CountTokens(unit.Path) + counter.CountTokens(unit.PatchText)
}
