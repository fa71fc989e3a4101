package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider identifies a model backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// Options configure the langchain-backed executor.
type Options struct {
	Provider Provider
	APIKey   string
	BaseURL  string // optional, OpenAI-compatible endpoints and Ollama servers
	Model    string
}

// LangchainExecutor runs requests through a langchaingo model.
type LangchainExecutor struct {
	model   llms.Model
	options Options
	logger  zerolog.Logger
}

// NewLangchainExecutor creates the model client for the configured provider.
func NewLangchainExecutor(ctx context.Context, options Options, logger zerolog.Logger) (*LangchainExecutor, error) {
	logger.Debug().
		Str("provider", string(options.Provider)).
		Str("model", options.Model).
		Msg("Creating model client")

	var model llms.Model
	var err error

	switch options.Provider {
	case ProviderOpenAI, "":
		model, err = createOpenAIModel(options)
	case ProviderGemini:
		model, err = createGeminiModel(ctx, options)
	case ProviderOllama:
		model, err = createOllamaModel(options)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", options.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", options.Provider, err)
	}

	return &LangchainExecutor{model: model, options: options, logger: logger}, nil
}

func createOpenAIModel(options Options) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithToken(options.APIKey),
		openai.WithModel(options.Model),
	}
	if options.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(options.BaseURL))
	}
	return openai.New(opts...)
}

func createGeminiModel(ctx context.Context, options Options) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithAPIKey(options.APIKey),
		googleai.WithDefaultModel(options.Model),
	}
	return googleai.New(ctx, opts...)
}

func createOllamaModel(options Options) (llms.Model, error) {
	serverURL := options.BaseURL
	if serverURL == "" {
		serverURL = "http://localhost:11434"
	}
	opts := []ollama.Option{
		ollama.WithServerURL(serverURL),
		ollama.WithModel(options.Model),
	}
	return ollama.New(opts...)
}

// Generate executes one request. The system role and the content are sent as
// separate messages; temperature and output cap come from the request.
func (e *LangchainExecutor) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	callOptions := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
	}
	if req.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(req.MaxTokens))
	}

	response, err := e.model.GenerateContent(ctx, messages, callOptions...)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return response.Choices[0].Content, nil
}

// Name returns the backend provider name.
func (e *LangchainExecutor) Name() string {
	if e.options.Provider == "" {
		return string(ProviderOpenAI)
	}
	return string(e.options.Provider)
}
