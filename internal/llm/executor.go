package llm

import "context"

// Request describes a single generation request to the model provider.
type Request struct {
	System      string  // role instructions
	Prompt      string  // content the model reasons over
	Temperature float64 // randomness of generation
	MaxTokens   int     // cap on generated output, 0 means provider default
}

// Executor runs generation requests against a model provider. Implementations
// must be safe for concurrent use: the analyzer issues one request per chunk
// from separate goroutines.
type Executor interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}
