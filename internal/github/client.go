package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ILoveScratch2/LLM-Reviewer/pkg/models"
)

const defaultBaseURL = "https://api.github.com"

// Client is a minimal GitHub REST client: it fetches a pull request's changed
// files and posts the final review as an issue comment.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a Client authenticated with the given token. baseURL may
// be empty to use api.github.com.
func NewClient(token, baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// splitSubmission parses a submission identifier of the form
// "owner/repo/number".
func splitSubmission(submission string) (owner, repo, number string, err error) {
	parts := strings.Split(submission, "/")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("invalid submission ID: expected 'owner/repo/number', got %q", submission)
	}
	return parts[0], parts[1], parts[2], nil
}

// Submission builds a submission identifier from a repository slug and a pull
// request number.
func Submission(repository string, prNumber int) string {
	return fmt.Sprintf("%s/%d", repository, prNumber)
}

// PRNumberFromRef extracts the pull request number from a GITHUB_REF value
// such as "refs/pull/123/merge" or "refs/pull/456/head".
func PRNumberFromRef(ref string) (int, error) {
	parts := strings.Split(ref, "/")
	if len(parts) >= 3 && parts[0] == "refs" && parts[1] == "pull" {
		n, err := strconv.Atoi(parts[2])
		if err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("ref %q does not reference a pull request", ref)
}

type prFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Patch     string `json:"patch"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
}

// FetchChanges lists the changed files of a pull request, paging through the
// files endpoint. The records come back in the API's order, untouched; the
// normalizer decides what is reviewable.
func (c *Client) FetchChanges(ctx context.Context, submission string) ([]*models.RawChange, error) {
	owner, repo, number, err := splitSubmission(submission)
	if err != nil {
		return nil, err
	}

	var records []*models.RawChange
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%s/files?per_page=100&page=%d",
			c.baseURL, owner, repo, number, page)

		var files []prFile
		if err := c.getJSON(ctx, url, &files); err != nil {
			return nil, fmt.Errorf("failed to list changed files: %w", err)
		}
		for _, f := range files {
			records = append(records, &models.RawChange{
				Path:      f.Filename,
				Patch:     f.Patch,
				Status:    f.Status,
				Additions: f.Additions,
				Deletions: f.Deletions,
				Changes:   f.Changes,
			})
		}
		if len(files) < 100 {
			break
		}
	}

	c.logger.Debug().
		Str("submission", submission).
		Int("files", len(records)).
		Msg("Fetched pull request change-set")
	return records, nil
}

// Publish posts body as an issue comment on the pull request.
func (c *Client) Publish(ctx context.Context, submission, body string) error {
	owner, repo, number, err := splitSubmission(submission)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues/%s/comments", c.baseURL, owner, repo, number)
	payload, _ := json.Marshal(map[string]string{"body": body})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post comment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("GitHub comment failed: %s", resp.Status)
	}

	c.logger.Debug().
		Str("submission", submission).
		Int("body_chars", len(body)).
		Msg("Posted review comment")
	return nil
}

// CheckConnectivity verifies the token can reach the given "owner/repo"
// repository.
func (c *Client) CheckConnectivity(ctx context.Context, repository string) error {
	url := fmt.Sprintf("%s/repos/%s", c.baseURL, repository)
	var repoInfo map[string]interface{}
	if err := c.getJSON(ctx, url, &repoInfo); err != nil {
		return fmt.Errorf("GitHub connectivity check failed: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GitHub API error: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}
