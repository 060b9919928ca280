// Package wikidata provides a client for the Wikidata action API.
package wikidata

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when an entity search yields no results.
var ErrNotFound = eris.New("wikidata: not found")

// Well-known property IDs used for profile enrichment.
const (
	PropOccupation     = "P106"
	PropEducatedAt     = "P69"
	PropEmployer       = "P108"
	PropOfficialSite   = "P856"
	PropOrcidID        = "P496"
	PropGitHubUsername = "P2037"
)

// Client defines the Wikidata operations used by the enrichment pipeline.
type Client interface {
	// SearchEntities searches items by label and returns the best match.
	// Returns ErrNotFound when nothing matches.
	SearchEntities(ctx context.Context, name string) (*SearchResult, error)
	// Entity fetches an item with its claims and descriptions.
	Entity(ctx context.Context, id string) (*Entity, error)
}

// SearchResult is a single wbsearchentities hit.
type SearchResult struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Entity is a Wikidata item with parsed claims.
type Entity struct {
	ID          string
	Description string
	claims      map[string][]claim
}

// StringClaim returns the first string-valued claim for a property.
func (e *Entity) StringClaim(prop string) string {
	for _, c := range e.claims[prop] {
		if s := c.stringValue(); s != "" {
			return s
		}
	}
	return ""
}

// ItemClaims returns all item-valued claim IDs for a property (Q-ids).
func (e *Entity) ItemClaims(prop string) []string {
	var ids []string
	for _, c := range e.claims[prop] {
		if id := c.itemID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

type claim struct {
	Mainsnak struct {
		Datavalue struct {
			Value json.RawMessage `json:"value"`
		} `json:"datavalue"`
	} `json:"mainsnak"`
}

func (c claim) stringValue() string {
	var s string
	if err := json.Unmarshal(c.Mainsnak.Datavalue.Value, &s); err != nil {
		return ""
	}
	return s
}

func (c claim) itemID() string {
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(c.Mainsnak.Datavalue.Value, &v); err != nil {
		return ""
	}
	return v.ID
}

// Option configures the Wikidata client.
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

// NewClient creates a Wikidata API client. The endpoint is public and
// requires no credential.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://www.wikidata.org/w/api.php",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "wikidata: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "wikidata: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "wikidata: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("wikidata: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "wikidata: unmarshal response")
	}
	return nil
}

func (c *httpClient) SearchEntities(ctx context.Context, name string) (*SearchResult, error) {
	params := url.Values{
		"action":   {"wbsearchentities"},
		"search":   {name},
		"language": {"en"},
		"type":     {"item"},
		"limit":    {"1"},
	}

	var res struct {
		Search []SearchResult `json:"search"`
	}
	if err := c.get(ctx, params, &res); err != nil {
		return nil, err
	}
	if len(res.Search) == 0 {
		return nil, ErrNotFound
	}
	return &res.Search[0], nil
}

func (c *httpClient) Entity(ctx context.Context, id string) (*Entity, error) {
	params := url.Values{
		"action":    {"wbgetentities"},
		"ids":       {id},
		"props":     {"claims|descriptions"},
		"languages": {"en"},
	}

	var res struct {
		Entities map[string]struct {
			Descriptions map[string]struct {
				Value string `json:"value"`
			} `json:"descriptions"`
			Claims map[string][]claim `json:"claims"`
		} `json:"entities"`
	}
	if err := c.get(ctx, params, &res); err != nil {
		return nil, err
	}

	ent, ok := res.Entities[id]
	if !ok {
		return nil, ErrNotFound
	}

	e := &Entity{ID: id, claims: ent.Claims}
	if d, ok := ent.Descriptions["en"]; ok {
		e.Description = d.Value
	}
	return e, nil
}
