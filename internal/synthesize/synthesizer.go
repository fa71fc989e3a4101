package synthesize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ILoveScratch2/LLM-Reviewer/internal/llm"
)

// Separator is placed between per-chunk analyses in the synthesis request.
const Separator = "\n\n----------------------------------------\n\n"

// Config holds the settings for the synthesis request.
type Config struct {
	Temperature    float64       // lower than analysis: synthesis is a reduction, not new analysis
	MaxTokens      int           // cap on the final report, 0 for provider default
	Language       string        // language the report is written in
	RequestTimeout time.Duration // bound on the single request, 0 disables
}

// Synthesizer reduces the per-chunk analysis results into one final report.
type Synthesizer struct {
	executor llm.Executor
	config   Config
	logger   zerolog.Logger
}

// New creates a Synthesizer.
func New(executor llm.Executor, config Config, logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{executor: executor, config: config, logger: logger}
}

// SystemPrompt is the fixed role for the synthesis request.
func (s *Synthesizer) SystemPrompt() string {
	language := s.config.Language
	if language == "" {
		language = "English"
	}
	return fmt.Sprintf(`You are a senior software engineer assembling the final report of a code
review. The text below contains independent partial reviews of one
submission, separated by horizontal rules. Merge them into a single coherent
report: group findings by component and file, keep the concrete line
references the partial reviews cite, and drop duplicate findings. Use only
the supplied material. Discard hypothetical or speculative findings that are
not grounded in it. Write the report in %s. Format as markdown.`, language)
}

// Synthesize filters the results to non-blank entries and submits one
// summarizing request. ok is false when there was nothing to synthesize; in
// that case no request is issued. An error means the synthesis request itself
// failed, which is fatal to the run.
func (s *Synthesizer) Synthesize(ctx context.Context, results []string) (report string, ok bool, err error) {
	kept := make([]string, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r) != "" {
			kept = append(kept, strings.TrimSpace(r))
		}
	}
	if len(kept) == 0 {
		s.logger.Warn().Int("results", len(results)).Msg("No analysis results to synthesize")
		return "", false, nil
	}

	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	s.logger.Info().
		Int("partial_reviews", len(kept)).
		Msg("Synthesizing final report")

	output, err := s.executor.Generate(ctx, llm.Request{
		System:      s.SystemPrompt(),
		Prompt:      strings.Join(kept, Separator),
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		return "", false, fmt.Errorf("synthesis request failed: %w", err)
	}

	output = strings.TrimSpace(output)
	if output == "" {
		return "", false, fmt.Errorf("synthesis returned an empty report")
	}
	return output, true, nil
}
