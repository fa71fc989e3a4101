package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ILoveScratch2/LLM-Reviewer/internal/analyze"
	"github.com/ILoveScratch2/LLM-Reviewer/internal/chunk"
	"github.com/ILoveScratch2/LLM-Reviewer/internal/llm"
	"github.com/ILoveScratch2/LLM-Reviewer/internal/logging"
	"github.com/ILoveScratch2/LLM-Reviewer/internal/synthesize"
	"github.com/ILoveScratch2/LLM-Reviewer/pkg/models"
)

// Outcome is the terminal state of one review run.
type Outcome string

const (
	// OutcomeNoUnits: the normalized unit list was empty, the
	// nothing-to-review notice was published.
	OutcomeNoUnits Outcome = "no_units"
	// OutcomeNoChunks: units existed but none passed the minimum-size filter.
	OutcomeNoChunks Outcome = "no_chunks"
	// OutcomeNoResults: every chunk analysis failed or was blank.
	OutcomeNoResults Outcome = "no_results"
	// OutcomeReportReady: synthesis produced a report and it was handed to
	// the publisher.
	OutcomeReportReady Outcome = "report_ready"
	// OutcomeSynthFailed: the synthesis request failed, nothing published.
	OutcomeSynthFailed Outcome = "synth_failed"
)

// Error kinds for the collaborator boundaries, so operators can tell which
// boundary failed.
var (
	ErrFetch     = errors.New("change-set fetch failed")
	ErrPublish   = errors.New("report publish failed")
	ErrSynthesis = errors.New("synthesis failed")
)

// NothingToReviewNotice is published when a submission carries no reviewable
// changes.
const NothingToReviewNotice = "No reviewable changes were found in this submission."

// Source supplies the raw change records for a submission identifier.
type Source interface {
	FetchChanges(ctx context.Context, submission string) ([]*models.RawChange, error)
}

// Publisher posts the final report, or the nothing-to-review notice, back to
// the submission.
type Publisher interface {
	Publish(ctx context.Context, submission string, body string) error
}

// Config holds the pipeline configuration for one service instance.
type Config struct {
	MaxChunkTokens       int
	MinUnitTokens        int
	ExcludeExtensions    []string
	AnalysisTemperature  float64
	SynthesisTemperature float64
	MaxSynthesisTokens   int
	Language             string
	RequestTimeout       time.Duration
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		MaxChunkTokens:       10000,
		MinUnitTokens:        0,
		AnalysisTemperature:  0.2,
		SynthesisTemperature: 0.1,
		MaxSynthesisTokens:   4096,
		Language:             "English",
		RequestTimeout:       5 * time.Minute,
	}
}

// RunResult reports what one review run did.
type RunResult struct {
	RunID    string
	Outcome  Outcome
	Report   string
	Units    int
	Chunks   int
	Analyzed int // chunk analyses that produced a non-blank result
	Err      error
	Duration time.Duration
}

// Service orchestrates one review run:
// fetch, normalize, chunk, analyze, synthesize, publish.
type Service struct {
	source      Source
	publisher   Publisher
	normalizer  *chunk.Normalizer
	chunker     *chunk.Chunker
	analyzer    *analyze.Analyzer
	synthesizer *synthesize.Synthesizer
	logger      zerolog.Logger
}

// NewService wires the pipeline components around the given collaborators.
func NewService(source Source, publisher Publisher, executor llm.Executor, cfg Config, logger zerolog.Logger) *Service {
	counter := &chunk.SimpleTokenCounter{}
	return &Service{
		source:     source,
		publisher:  publisher,
		normalizer: chunk.NewNormalizer(cfg.ExcludeExtensions, logger),
		chunker:    chunk.NewChunker(cfg.MaxChunkTokens, cfg.MinUnitTokens, counter, logger),
		analyzer: analyze.New(executor, analyze.Config{
			Temperature:    cfg.AnalysisTemperature,
			Language:       cfg.Language,
			RequestTimeout: cfg.RequestTimeout,
		}, logger),
		synthesizer: synthesize.New(executor, synthesize.Config{
			Temperature:    cfg.SynthesisTemperature,
			MaxTokens:      cfg.MaxSynthesisTokens,
			Language:       cfg.Language,
			RequestTimeout: cfg.RequestTimeout,
		}, logger),
		logger: logger,
	}
}

// Run executes one review run for the given submission identifier. The run
// is one-shot: no state survives it, and exactly one of three things happens:
// a report is published, the nothing-to-review notice is published, or the
// failure is reported on the result with nothing published.
func (s *Service) Run(ctx context.Context, submission string) *RunResult {
	start := time.Now()
	result := &RunResult{RunID: uuid.NewString()}
	defer func() { result.Duration = time.Since(start) }()

	logger := logging.ForRun(s.logger, result.RunID).With().Str("submission", submission).Logger()
	logger.Info().Msg("Starting review run")

	records, err := s.source.FetchChanges(ctx, submission)
	if err != nil {
		// Downstream this reads as an empty change-set, but the log must tell
		// it apart from a legitimately empty submission.
		logger.Error().Err(err).Msg("Failed to fetch change-set, treating as empty")
		result.Err = fmt.Errorf("%w: %v", ErrFetch, err)
		records = nil
	}

	units := s.normalizer.Normalize(records)
	result.Units = len(units)
	if len(units) == 0 {
		logger.Info().Msg("Nothing to review in this submission")
		result.Outcome = OutcomeNoUnits
		if err := s.publisher.Publish(ctx, submission, NothingToReviewNotice); err != nil {
			logger.Error().Err(err).Msg("Failed to publish nothing-to-review notice")
			result.Err = fmt.Errorf("%w: %v", ErrPublish, err)
		}
		return result
	}

	chunks := s.chunker.Chunk(units)
	result.Chunks = len(chunks)
	if len(chunks) == 0 {
		logger.Warn().Int("units", len(units)).Msg("All units below minimum size, nothing to analyze")
		result.Outcome = OutcomeNoChunks
		return result
	}

	analyses := s.analyzer.Analyze(ctx, chunks)
	for _, a := range analyses {
		if strings.TrimSpace(a) != "" {
			result.Analyzed++
		}
	}
	if result.Analyzed == 0 {
		logger.Warn().Int("chunks", len(chunks)).Msg("Every chunk analysis failed or was blank")
		result.Outcome = OutcomeNoResults
		return result
	}

	report, ok, err := s.synthesizer.Synthesize(ctx, analyses)
	if err != nil {
		logger.Error().Err(err).Msg("Synthesis failed, no report will be published")
		result.Outcome = OutcomeSynthFailed
		result.Err = fmt.Errorf("%w: %v", ErrSynthesis, err)
		return result
	}
	if !ok {
		result.Outcome = OutcomeNoResults
		return result
	}

	result.Report = report
	result.Outcome = OutcomeReportReady
	if err := s.publisher.Publish(ctx, submission, report); err != nil {
		logger.Error().Err(err).Msg("Failed to publish report")
		result.Err = fmt.Errorf("%w: %v", ErrPublish, err)
		return result
	}

	logger.Info().
		Int("chunks", result.Chunks).
		Int("analyzed", result.Analyzed).
		Int("report_chars", len(report)).
		Msg("Review run completed, report published")
	return result
}
