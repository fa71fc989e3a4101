package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/ILoveScratch2/LLM-Reviewer/internal/config"
	"github.com/ILoveScratch2/LLM-Reviewer/internal/github"
	"github.com/ILoveScratch2/LLM-Reviewer/internal/llm"
	"github.com/ILoveScratch2/LLM-Reviewer/internal/logging"
	"github.com/ILoveScratch2/LLM-Reviewer/internal/retry"
	"github.com/ILoveScratch2/LLM-Reviewer/internal/review"
)

func main() {
	app := &cli.App{
		Name:  "llm-reviewer",
		Usage: "AI code review for pull requests",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to TOML config file",
				EnvVars: []string{"LLM_REVIEWER_CONFIG"},
			},
			&cli.IntFlag{
				Name:  "pr",
				Usage: "pull request number (defaults to the one in GITHUB_REF)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Action: runReview,
		Commands: []*cli.Command{
			{
				Name:   "review",
				Usage:  "review a pull request and post the report",
				Action: runReview,
			},
			{
				Name:  "init-config",
				Usage: "write a sample configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Value: "llm-reviewer.toml",
						Usage: "where to write the sample config",
					},
				},
				Action: func(c *cli.Context) error {
					path := c.String("path")
					if err := config.InitConfig(path); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Printf("Wrote sample configuration to %s\n", path)
					return nil
				},
			},
			{
				Name:   "check",
				Usage:  "verify configuration and collaborator connectivity",
				Action: runCheck,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runReview(c *cli.Context) error {
	logger := logging.New(c.Bool("verbose"))

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := config.Validate(cfg); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	prNumber := c.Int("pr")
	if prNumber == 0 {
		prNumber, err = github.PRNumberFromRef(cfg.GitHub.Ref)
		if err != nil {
			return cli.Exit(fmt.Sprintf("no pull request to review: %v", err), 1)
		}
	}
	submission := github.Submission(cfg.GitHub.Repository, prNumber)

	ctx := context.Background()
	client := github.NewClient(cfg.GitHub.Token, cfg.GitHub.APIURL, logger)
	executor, err := buildExecutor(ctx, cfg, logger)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	service := review.NewService(client, client, executor, serviceConfig(cfg), logger)
	result := service.Run(ctx, submission)

	switch result.Outcome {
	case review.OutcomeReportReady:
		if result.Err != nil {
			return cli.Exit(fmt.Sprintf("report generated but publishing failed: %v", result.Err), 1)
		}
		fmt.Printf("Review published: %d chunks analyzed in %v\n", result.Analyzed, result.Duration.Round(time.Millisecond))
	case review.OutcomeNoUnits:
		fmt.Println("Nothing to review in this pull request.")
	case review.OutcomeNoChunks, review.OutcomeNoResults:
		fmt.Println("No review produced; see logs.")
	case review.OutcomeSynthFailed:
		return cli.Exit(fmt.Sprintf("review failed: %v", result.Err), 1)
	}
	return nil
}

func runCheck(c *cli.Context) error {
	logger := logging.New(c.Bool("verbose"))

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Printf("Provider:   %s\n", cfg.AI.Provider)
	fmt.Printf("Model:      %s\n", cfg.AI.ModelName)
	fmt.Printf("API key:    %s\n", mask(cfg.AI.APIKey))
	fmt.Printf("Repository: %s\n", cfg.GitHub.Repository)
	fmt.Printf("Token:      %s\n", mask(cfg.GitHub.Token))

	if err := config.Validate(cfg); err != nil {
		return cli.Exit(fmt.Sprintf("configuration invalid: %v", err), 1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := github.NewClient(cfg.GitHub.Token, cfg.GitHub.APIURL, logger)
	if err := client.CheckConnectivity(ctx, cfg.GitHub.Repository); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Println("GitHub: OK")

	executor, err := buildExecutor(ctx, cfg, logger)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	_, err = executor.Generate(ctx, llm.Request{
		Prompt:    "Reply with OK.",
		MaxTokens: 10,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("model provider check failed: %v", err), 1)
	}
	fmt.Println("Model provider: OK")
	return nil
}

func buildExecutor(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (llm.Executor, error) {
	base, err := llm.NewLangchainExecutor(ctx, llm.Options{
		Provider: llm.Provider(cfg.AI.Provider),
		APIKey:   cfg.AI.APIKey,
		BaseURL:  cfg.AI.BaseURL,
		Model:    cfg.AI.ModelName,
	}, logger)
	if err != nil {
		return nil, err
	}

	retryConfig := retry.LLMRetryConfig()
	if cfg.Review.MaxRetries > 0 {
		retryConfig.MaxRetries = cfg.Review.MaxRetries
	}
	if cfg.Review.RetryDelayMs > 0 {
		retryConfig.BaseDelay = time.Duration(cfg.Review.RetryDelayMs) * time.Millisecond
	}
	return llm.NewResilientExecutor(base, retryConfig, logger), nil
}

func mask(secret string) string {
	if secret == "" {
		return "NOT SET"
	}
	if len(secret) <= 4 {
		return "***"
	}
	return "**********..." + secret[len(secret)-4:]
}

func serviceConfig(cfg *config.Config) review.Config {
	rc := review.DefaultConfig()
	rc.MaxChunkTokens = cfg.Review.MaxChunkTokens
	rc.MinUnitTokens = cfg.Review.MinUnitTokens
	rc.ExcludeExtensions = cfg.Review.ExcludeExtensions
	rc.AnalysisTemperature = cfg.AI.Temperature
	rc.SynthesisTemperature = cfg.AI.SynthesisTemperature
	rc.MaxSynthesisTokens = cfg.AI.MaxTokens
	rc.Language = cfg.AI.Language
	rc.RequestTimeout = time.Duration(cfg.Review.RequestTimeoutSeconds) * time.Second
	return rc
}
