package analyze

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ILoveScratch2/LLM-Reviewer/internal/chunk"
	"github.com/ILoveScratch2/LLM-Reviewer/internal/llm"
)

// Config holds the settings shared by all chunk analysis requests.
type Config struct {
	Temperature    float64       // low randomness keeps findings reproducible
	MaxTokens      int           // cap on each analysis response, 0 for provider default
	Language       string        // language the review is written in
	RequestTimeout time.Duration // per-request bound, 0 disables
}

// Analyzer fans one analysis request per chunk out to the model provider and
// fans the results back in.
type Analyzer struct {
	executor llm.Executor
	config   Config
	logger   zerolog.Logger
}

// New creates an Analyzer.
func New(executor llm.Executor, config Config, logger zerolog.Logger) *Analyzer {
	return &Analyzer{executor: executor, config: config, logger: logger}
}

// Analyze submits every chunk concurrently and returns one result per input
// chunk in input order, regardless of completion order. A chunk that renders
// blank is never submitted and yields "". A failed request degrades that
// chunk's entry to "" and is logged; sibling requests are unaffected.
func (a *Analyzer) Analyze(ctx context.Context, chunks []chunk.Chunk) []string {
	results := make([]string, len(chunks))
	var wg sync.WaitGroup

	for i, ch := range chunks {
		rendered := RenderChunk(ch)
		if strings.TrimSpace(rendered) == "" {
			a.logger.Warn().Int("chunk", i+1).Msg("Chunk rendered blank, no request issued")
			continue
		}

		wg.Add(1)
		go func(num int, ch chunk.Chunk, rendered string) {
			defer wg.Done()
			results[num-1] = a.analyzeChunk(ctx, num, ch, rendered)
		}(i+1, ch, rendered)
	}

	wg.Wait()
	return results
}

// analyzeChunk runs one chunk request under its own timeout.
func (a *Analyzer) analyzeChunk(ctx context.Context, num int, ch chunk.Chunk, rendered string) string {
	if a.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.RequestTimeout)
		defer cancel()
	}

	a.logger.Debug().
		Int("chunk", num).
		Int("files", len(ch.Units)).
		Int("tokens", ch.Tokens).
		Msg("Submitting chunk for analysis")

	start := time.Now()
	output, err := a.executor.Generate(ctx, llm.Request{
		System:      SystemPrompt(a.config.Language),
		Prompt:      BuildPrompt(rendered, a.config.Language),
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
	})
	if err != nil {
		a.logger.Error().
			Err(err).
			Int("chunk", num).
			Dur("elapsed", time.Since(start)).
			Msg("Chunk analysis failed, degrading to empty result")
		return ""
	}

	output = strings.TrimSpace(output)
	a.logger.Debug().
		Int("chunk", num).
		Int("response_chars", len(output)).
		Dur("elapsed", time.Since(start)).
		Msg("Chunk analysis completed")
	return output
}
