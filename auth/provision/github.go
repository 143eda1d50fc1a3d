package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aidetectsai/detector-api/httpclient"
)

// Email is one entry of a provider's registered-email list.
type Email struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// EmailLister fetches the registered emails of an externally-authenticated
// user, for providers that omit the email from the identity attributes.
type EmailLister interface {
	ListEmails(ctx context.Context, accessToken string) ([]Email, error)
}

// GitHubConfig configures the GitHub API client.
type GitHubConfig struct {
	// BaseURL is the GitHub API root (default: https://api.github.com).
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds each email-list request (default: 10s).
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-value fields.
func (c *GitHubConfig) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.github.com"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// GitHubClient lists user emails through the GitHub REST API.
type GitHubClient struct {
	client *httpclient.Client
}

// NewGitHubClient creates a GitHub API client with bounded timeout and
// retry on transient failures.
func NewGitHubClient(cfg GitHubConfig) (*GitHubClient, error) {
	cfg.ApplyDefaults()

	client, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: map[string]string{"Accept": "application/vnd.github+json"},
		Retry:   httpclient.DefaultRetryConfig(),
	})
	if err != nil {
		return nil, fmt.Errorf("provision: build github client: %w", err)
	}
	return &GitHubClient{client: client}, nil
}

// ListEmails fetches the user's registered emails with the given OAuth2
// access token.
func (g *GitHubClient) ListEmails(ctx context.Context, accessToken string) ([]Email, error) {
	resp, err := g.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/user/emails",
		Auth:   httpclient.BearerAuth(accessToken),
	})
	if err != nil {
		return nil, fmt.Errorf("provision: fetch github emails: %w", err)
	}

	var emails []Email
	if err := json.Unmarshal(resp.Body, &emails); err != nil {
		return nil, fmt.Errorf("provision: decode github emails: %w", err)
	}
	return emails, nil
}
