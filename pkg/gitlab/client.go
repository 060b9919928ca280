// Package gitlab provides a client for the GitLab public users API.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when no user matches the requested username.
var ErrNotFound = eris.New("gitlab: not found")

// Client defines the GitLab operations used by the enrichment pipeline.
type Client interface {
	// UserByUsername fetches the user with the exact username.
	// Returns ErrNotFound when no such user exists.
	UserByUsername(ctx context.Context, username string) (*User, error)
	// Projects lists a user's most starred public projects.
	Projects(ctx context.Context, userID int) ([]Project, error)
}

// User is a GitLab user profile. Public lookups expose a reduced field set.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Bio          string `json:"bio"`
	Location     string `json:"location"`
	Organization string `json:"organization"`
	JobTitle     string `json:"job_title"`
	WebsiteURL   string `json:"website_url"`
	WebURL       string `json:"web_url"`
}

// Project is a public project summary.
type Project struct {
	Name        string `json:"name"`
	WebURL      string `json:"web_url"`
	Description string `json:"description"`
	Stars       int    `json:"star_count"`
}

// Option configures the GitLab client.
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
}

// NewClient creates a GitLab API client. The token is optional.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://gitlab.com/api/v4",
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
		return eris.Wrap(err, "gitlab: create request")
	}
	if c.token != "" {
		req.Header.Set("PRIVATE-TOKEN", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "gitlab: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "gitlab: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("gitlab: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "gitlab: unmarshal response")
	}
	return nil
}

func (c *httpClient) UserByUsername(ctx context.Context, username string) (*User, error) {
	var users []User
	if err := c.get(ctx, "/users?username="+url.QueryEscape(username), &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return &users[0], nil
}

func (c *httpClient) Projects(ctx context.Context, userID int) ([]Project, error) {
	var projects []Project
	path := fmt.Sprintf("/users/%d/projects?order_by=star_count&per_page=10", userID)
	if err := c.get(ctx, path, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}
