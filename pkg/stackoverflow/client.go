// Package stackoverflow provides a client for the Stack Exchange API (v2.3).
package stackoverflow

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

// ErrNotFound is returned when a name search yields no users.
var ErrNotFound = eris.New("stackoverflow: not found")

// Client defines the Stack Exchange operations used by the enrichment
// pipeline.
type Client interface {
	// UsersByName searches Stack Overflow users whose display name contains
	// the given name, ordered by reputation. Returns ErrNotFound when empty.
	UsersByName(ctx context.Context, name string) ([]User, error)
	// TopTags returns the user's most active tags (best-effort skills).
	TopTags(ctx context.Context, userID int) ([]string, error)
}

// User is a Stack Overflow user summary.
type User struct {
	UserID      int    `json:"user_id"`
	DisplayName string `json:"display_name"`
	Location    string `json:"location"`
	WebsiteURL  string `json:"website_url"`
	Link        string `json:"link"`
	Reputation  int    `json:"reputation"`
}

type usersResponse struct {
	Items []User `json:"items"`
}

type topTagsResponse struct {
	Items []struct {
		TagName string `json:"tag_name"`
	} `json:"items"`
}

// Option configures the Stack Exchange client.
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
	key     string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Stack Exchange API client. The app key is optional:
// without it requests draw from the shared anonymous quota.
func NewClient(key string, opts ...Option) Client {
	c := &httpClient{
		key:     key,
		baseURL: "https://api.stackexchange.com/2.3",
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "stackoverflow: rate limiter")
	}

	sep := "?"
	if u, err := url.Parse(path); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	reqURL := c.baseURL + path + sep + "site=stackoverflow"
	if c.key != "" {
		reqURL += "&key=" + url.QueryEscape(c.key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "stackoverflow: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "stackoverflow: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "stackoverflow: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("stackoverflow: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "stackoverflow: unmarshal response")
	}
	return nil
}

func (c *httpClient) UsersByName(ctx context.Context, name string) ([]User, error) {
	path := "/users?order=desc&sort=reputation&pagesize=5&inname=" + url.QueryEscape(name)
	var res usersResponse
	if err := c.get(ctx, path, &res); err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, ErrNotFound
	}
	return res.Items, nil
}

func (c *httpClient) TopTags(ctx context.Context, userID int) ([]string, error) {
	path := fmt.Sprintf("/users/%d/top-tags?pagesize=10", userID)
	var res topTagsResponse
	if err := c.get(ctx, path, &res); err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		tags = append(tags, item.TagName)
	}
	return tags, nil
}
