// Package devto provides a client for the DEV (dev.to) public API.
package devto

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when no user exists for a username.
var ErrNotFound = eris.New("devto: not found")

// Client defines the DEV operations used by the enrichment pipeline.
type Client interface {
	// UserByUsername fetches a user profile. Returns ErrNotFound on 404.
	UserByUsername(ctx context.Context, username string) (*User, error)
	// Articles lists the user's most recent published articles.
	Articles(ctx context.Context, username string) ([]Article, error)
}

// User is a DEV user profile.
type User struct {
	Name           string `json:"name"`
	Username       string `json:"username"`
	Summary        string `json:"summary"`
	Location       string `json:"location"`
	WebsiteURL     string `json:"website_url"`
	GitHubUsername string `json:"github_username"`
}

// Article is a published article summary.
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
}

// Option configures the DEV client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a DEV API client. Reads are public.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://dev.to/api",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "devto: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "devto: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "devto: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("devto: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "devto: unmarshal response")
	}
	return nil
}

func (c *httpClient) UserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	if err := c.get(ctx, "/users/by_username?url="+url.QueryEscape(username), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *httpClient) Articles(ctx context.Context, username string) ([]Article, error) {
	var articles []Article
	if err := c.get(ctx, "/articles?per_page=10&username="+url.QueryEscape(username), &articles); err != nil {
		return nil, err
	}
	return articles, nil
}
