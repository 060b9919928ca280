// Package orcid provides a client for the ORCID public API (v3.0).
package orcid

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a record does not exist or a search is empty.
var ErrNotFound = eris.New("orcid: not found")

// Client defines the ORCID operations used by the enrichment pipeline.
type Client interface {
	// Record fetches the public record for an ORCID iD.
	// Returns ErrNotFound on 404.
	Record(ctx context.Context, id string) (*Record, error)
	// SearchByName searches the registry by full name and returns the
	// first matching ORCID iD. Returns ErrNotFound when nothing matches.
	SearchByName(ctx context.Context, name string) (string, error)
}

// Record is a simplified view of an ORCID public record.
type Record struct {
	OrcidID     string
	Name        string
	Bio         string
	Email       string
	Keywords    []string
	URLs        []string
	Employments []Affiliation
	Educations  []Affiliation
	Works       []Work
}

// Affiliation is an employment or education entry.
type Affiliation struct {
	Organization string
	Role         string
}

// Work is a published work summary.
type Work struct {
	Title   string
	Journal string
	Year    int
	URL     string
}

// Option configures the ORCID client.
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

// NewClient creates an ORCID public API client. No credential is needed;
// the public endpoint serves anonymous reads.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://pub.orcid.org/v3.0",
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
		return eris.Wrap(err, "orcid: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "orcid: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "orcid: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("orcid: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "orcid: unmarshal response")
	}
	return nil
}

// value is the {"value": "..."} wrapper ORCID uses for most scalars.
type value struct {
	Value string `json:"value"`
}

type recordResponse struct {
	OrcidIdentifier struct {
		Path string `json:"path"`
	} `json:"orcid-identifier"`
	Person struct {
		Name struct {
			GivenNames value `json:"given-names"`
			FamilyName value `json:"family-name"`
		} `json:"name"`
		Biography *struct {
			Content string `json:"content"`
		} `json:"biography"`
		Emails struct {
			Email []struct {
				Email string `json:"email"`
			} `json:"email"`
		} `json:"emails"`
		Keywords struct {
			Keyword []struct {
				Content string `json:"content"`
			} `json:"keyword"`
		} `json:"keywords"`
		ResearcherURLs struct {
			ResearcherURL []struct {
				URL value `json:"url"`
			} `json:"researcher-url"`
		} `json:"researcher-urls"`
	} `json:"person"`
	ActivitiesSummary struct {
		Employments affiliationGroups `json:"employments"`
		Educations  affiliationGroups `json:"educations"`
		Works       struct {
			Group []struct {
				WorkSummary []workSummary `json:"work-summary"`
			} `json:"group"`
		} `json:"works"`
	} `json:"activities-summary"`
}

type affiliationGroups struct {
	AffiliationGroup []struct {
		Summaries []map[string]affiliationSummary `json:"summaries"`
	} `json:"affiliation-group"`
}

type affiliationSummary struct {
	RoleTitle    string `json:"role-title"`
	Organization struct {
		Name string `json:"name"`
	} `json:"organization"`
}

type workSummary struct {
	Title struct {
		Title value `json:"title"`
	} `json:"title"`
	JournalTitle    *value `json:"journal-title"`
	PublicationDate *struct {
		Year value `json:"year"`
	} `json:"publication-date"`
	URL *value `json:"url"`
}

func (g affiliationGroups) flatten() []Affiliation {
	var out []Affiliation
	for _, grp := range g.AffiliationGroup {
		for _, summaries := range grp.Summaries {
			for _, s := range summaries {
				if s.Organization.Name == "" && s.RoleTitle == "" {
					continue
				}
				out = append(out, Affiliation{
					Organization: s.Organization.Name,
					Role:         s.RoleTitle,
				})
			}
		}
	}
	return out
}

func (c *httpClient) Record(ctx context.Context, id string) (*Record, error) {
	var res recordResponse
	if err := c.get(ctx, "/"+url.PathEscape(id)+"/record", &res); err != nil {
		return nil, err
	}

	rec := &Record{
		OrcidID:     res.OrcidIdentifier.Path,
		Name:        joinName(res.Person.Name.GivenNames.Value, res.Person.Name.FamilyName.Value),
		Employments: res.ActivitiesSummary.Employments.flatten(),
		Educations:  res.ActivitiesSummary.Educations.flatten(),
	}
	if rec.OrcidID == "" {
		rec.OrcidID = id
	}
	if res.Person.Biography != nil {
		rec.Bio = res.Person.Biography.Content
	}
	if len(res.Person.Emails.Email) > 0 {
		rec.Email = res.Person.Emails.Email[0].Email
	}
	for _, kw := range res.Person.Keywords.Keyword {
		if kw.Content != "" {
			rec.Keywords = append(rec.Keywords, kw.Content)
		}
	}
	for _, ru := range res.Person.ResearcherURLs.ResearcherURL {
		if ru.URL.Value != "" {
			rec.URLs = append(rec.URLs, ru.URL.Value)
		}
	}
	for _, grp := range res.ActivitiesSummary.Works.Group {
		if len(grp.WorkSummary) == 0 {
			continue
		}
		ws := grp.WorkSummary[0]
		w := Work{Title: ws.Title.Title.Value}
		if ws.JournalTitle != nil {
			w.Journal = ws.JournalTitle.Value
		}
		if ws.PublicationDate != nil {
			w.Year, _ = strconv.Atoi(ws.PublicationDate.Year.Value)
		}
		if ws.URL != nil {
			w.URL = ws.URL.Value
		}
		if w.Title != "" {
			rec.Works = append(rec.Works, w)
		}
	}

	return rec, nil
}

type searchResponse struct {
	NumFound int `json:"num-found"`
	Result   []struct {
		OrcidIdentifier struct {
			Path string `json:"path"`
		} `json:"orcid-identifier"`
	} `json:"result"`
}

func (c *httpClient) SearchByName(ctx context.Context, name string) (string, error) {
	q := url.QueryEscape(`given-and-family-names:"` + name + `"`)
	var res searchResponse
	if err := c.get(ctx, "/search/?rows=1&q="+q, &res); err != nil {
		return "", err
	}
	if len(res.Result) == 0 || res.Result[0].OrcidIdentifier.Path == "" {
		return "", ErrNotFound
	}
	return res.Result[0].OrcidIdentifier.Path, nil
}

func joinName(given, family string) string {
	switch {
	case given == "":
		return family
	case family == "":
		return given
	default:
		return given + " " + family
	}
}
