package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration. It is loaded once and
// passed into components as a value; nothing reads the process environment
// after load.
type Config struct {
	AI struct {
		Provider             string  `koanf:"provider"`
		APIKey               string  `koanf:"api_key"`
		ModelName            string  `koanf:"model_name"`
		BaseURL              string  `koanf:"base_url"`
		Temperature          float64 `koanf:"temperature"`
		SynthesisTemperature float64 `koanf:"synthesis_temperature"`
		MaxTokens            int     `koanf:"max_tokens"`
		Language             string  `koanf:"language"`
	} `koanf:"ai"`

	Review struct {
		MaxChunkTokens        int      `koanf:"max_chunk_tokens"`
		MinUnitTokens         int      `koanf:"min_unit_tokens"`
		RequestTimeoutSeconds int      `koanf:"request_timeout_seconds"`
		MaxRetries            int      `koanf:"max_retries"`
		RetryDelayMs          int      `koanf:"retry_delay_ms"`
		ExcludeExtensions     []string `koanf:"exclude_extensions"`
	} `koanf:"review"`

	GitHub struct {
		Token      string `koanf:"token"`
		Repository string `koanf:"repository"`
		Ref        string `koanf:"ref"`
		APIURL     string `koanf:"api_url"`
	} `koanf:"github"`
}

// LoadConfig loads the configuration: defaults, then the TOML file (explicit
// path or default locations), then environment variables. The env surface
// keeps the GitHub Action names: INPUT_* maps onto ai.* and GITHUB_* onto
// github.*.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"ai.provider":                    "openai",
		"ai.model_name":                  "gpt-4",
		"ai.temperature":                 0.2,
		"ai.synthesis_temperature":       0.1,
		"ai.max_tokens":                  4096,
		"ai.language":                    "English",
		"review.max_chunk_tokens":        10000,
		"review.min_unit_tokens":         0,
		"review.request_timeout_seconds": 300,
		"review.max_retries":             3,
		"review.retry_delay_ms":          2000,
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./llm-reviewer.toml", "$HOME/.llm-reviewer.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// INPUT_API_KEY -> ai.api_key, INPUT_MODEL_NAME -> ai.model_name, ...
	k.Load(env.Provider("INPUT_", ".", func(s string) string {
		return "ai." + strings.ToLower(strings.TrimPrefix(s, "INPUT_"))
	}), nil)

	// GITHUB_TOKEN -> github.token, GITHUB_REPOSITORY -> github.repository, ...
	k.Load(env.Provider("GITHUB_", ".", func(s string) string {
		return "github." + strings.ToLower(strings.TrimPrefix(s, "GITHUB_"))
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig writes a sample configuration file.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# LLM-Reviewer Configuration

[ai]
provider = "openai"
api_key = "your-api-key"
model_name = "gpt-4"
# base_url = "https://api.openai.com/v1"
temperature = 0.2
synthesis_temperature = 0.1
max_tokens = 4096
language = "English"

[review]
max_chunk_tokens = 10000
min_unit_tokens = 0
request_timeout_seconds = 300
max_retries = 3
retry_delay_ms = 2000

[github]
token = "your-github-token"
repository = "owner/repo"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate checks the fields a review run requires.
func Validate(config *Config) error {
	switch config.AI.Provider {
	case "openai", "gemini":
		if config.AI.APIKey == "" {
			return fmt.Errorf("ai api_key is required for provider %s", config.AI.Provider)
		}
	case "ollama":
		// Local server, no key needed.
	default:
		return fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	if config.AI.ModelName == "" {
		return fmt.Errorf("ai model_name is required")
	}
	if config.GitHub.Token == "" {
		return fmt.Errorf("github token is required")
	}
	if config.GitHub.Repository == "" {
		return fmt.Errorf("github repository is required")
	}
	if config.Review.MaxChunkTokens <= 0 {
		return fmt.Errorf("review max_chunk_tokens must be positive")
	}
	return nil
}
