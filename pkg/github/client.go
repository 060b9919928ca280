// Package github provides a client for the GitHub users and search APIs.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when a user does not exist or a search is empty.
var ErrNotFound = eris.New("github: not found")

// Client defines the GitHub operations used by the enrichment pipeline.
type Client interface {
	// User fetches a user by login. Returns ErrNotFound on 404.
	User(ctx context.Context, login string) (*User, error)
	// SearchUserByEmail finds the login owning an email address.
	// Returns ErrNotFound when no user matches.
	SearchUserByEmail(ctx context.Context, email string) (string, error)
	// Repos lists the user's most recently updated public repositories.
	Repos(ctx context.Context, login string) ([]Repo, error)
}

// User is a GitHub user profile.
type User struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Bio         string `json:"bio"`
	Blog        string `json:"blog"`
	HTMLURL     string `json:"html_url"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
}

// Repo is a public repository summary.
type Repo struct {
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
}

type searchUsersResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		Login string `json:"login"`
	} `json:"items"`
}

// Option configures the GitHub client.
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
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a GitHub API client. The token is optional: without it
// requests run against the unauthenticated public quota.
func NewClient(token string, opts ...Option) Client {
	// Unauthenticated quota is 60 req/hour; stay well under it per process.
	rps := rate.Every(2 * time.Second)
	if token != "" {
		rps = rate.Every(200 * time.Millisecond)
	}
	c := &httpClient{
		token:   token,
		baseURL: "https://api.github.com",
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rps, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "github: rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "github: create request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "github: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "github: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("github: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "github: unmarshal response")
	}
	return nil
}

func (c *httpClient) User(ctx context.Context, login string) (*User, error) {
	var u User
	if err := c.get(ctx, "/users/"+url.PathEscape(login), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *httpClient) SearchUserByEmail(ctx context.Context, email string) (string, error) {
	q := url.QueryEscape(fmt.Sprintf("%s in:email", email))
	var res searchUsersResponse
	if err := c.get(ctx, "/search/users?per_page=1&q="+q, &res); err != nil {
		return "", err
	}
	if len(res.Items) == 0 {
		return "", ErrNotFound
	}
	return res.Items[0].Login, nil
}

func (c *httpClient) Repos(ctx context.Context, login string) ([]Repo, error) {
	var repos []Repo
	path := "/users/" + url.PathEscape(login) + "/repos?sort=updated&per_page=10"
	if err := c.get(ctx, path, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}
