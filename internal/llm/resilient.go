package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ILoveScratch2/LLM-Reviewer/internal/retry"
)

// ResilientExecutor wraps an Executor with exponential-backoff retries for
// transient provider errors. Permanent errors pass through after the first
// attempt.
type ResilientExecutor struct {
	inner  Executor
	config retry.RetryConfig
	logger zerolog.Logger
}

// NewResilientExecutor wraps inner with the given retry configuration.
func NewResilientExecutor(inner Executor, config retry.RetryConfig, logger zerolog.Logger) *ResilientExecutor {
	return &ResilientExecutor{inner: inner, config: config, logger: logger}
}

// NewResilientExecutorWithDefaults wraps inner with the model-request retry
// defaults.
func NewResilientExecutorWithDefaults(inner Executor, logger zerolog.Logger) *ResilientExecutor {
	return NewResilientExecutor(inner, retry.LLMRetryConfig(), logger)
}

// Generate runs the request, retrying retryable failures until the retry
// budget is spent.
func (e *ResilientExecutor) Generate(ctx context.Context, req Request) (string, error) {
	var output string
	result := retry.RetryWithBackoff(ctx, e.config, func() error {
		out, err := e.inner.Generate(ctx, req)
		if err != nil {
			return err
		}
		output = out
		return nil
	}, e.logger)

	if !result.Success {
		return "", result.LastError
	}
	return output, nil
}

// Name returns the wrapped executor's name.
func (e *ResilientExecutor) Name() string {
	return e.inner.Name()
}
