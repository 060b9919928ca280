package orcid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordJSON = `{
	"orcid-identifier": {"path": "0000-0002-1825-0097"},
	"person": {
		"name": {
			"given-names": {"value": "Josiah"},
			"family-name": {"value": "Carberry"}
		},
		"biography": {"content": "Psychoceramics researcher"},
		"emails": {"email": [{"email": "josiah@example.edu"}]},
		"keywords": {"keyword": [{"content": "psychoceramics"}, {"content": ""}]},
		"researcher-urls": {"researcher-url": [{"url": {"value": "https://carberry.example"}}]}
	},
	"activities-summary": {
		"employments": {
			"affiliation-group": [{
				"summaries": [{"employment-summary": {
					"role-title": "Professor",
					"organization": {"name": "Brown University"}
				}}]
			}]
		},
		"educations": {
			"affiliation-group": [{
				"summaries": [{"education-summary": {
					"role-title": "PhD",
					"organization": {"name": "Wesleyan University"}
				}}]
			}]
		},
		"works": {
			"group": [{
				"work-summary": [{
					"title": {"title": {"value": "Toward a Unified Theory of High-Energy Metaphysics"}},
					"journal-title": {"value": "Journal of Psychoceramics"},
					"publication-date": {"year": {"value": "2008"}},
					"url": {"value": "https://doi.example/10.5555/12345678"}
				}]
			}]
		}
	}
}`

func TestRecord_ParsesFullRecord(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/0000-0002-1825-0097/record", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(recordJSON))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	rec, err := client.Record(context.Background(), "0000-0002-1825-0097")

	require.NoError(t, err)
	assert.Equal(t, "0000-0002-1825-0097", rec.OrcidID)
	assert.Equal(t, "Josiah Carberry", rec.Name)
	assert.Equal(t, "Psychoceramics researcher", rec.Bio)
	assert.Equal(t, "josiah@example.edu", rec.Email)
	assert.Equal(t, []string{"psychoceramics"}, rec.Keywords)
	assert.Equal(t, []string{"https://carberry.example"}, rec.URLs)

	require.Len(t, rec.Employments, 1)
	assert.Equal(t, "Brown University", rec.Employments[0].Organization)
	assert.Equal(t, "Professor", rec.Employments[0].Role)

	require.Len(t, rec.Educations, 1)
	assert.Equal(t, "Wesleyan University", rec.Educations[0].Organization)

	require.Len(t, rec.Works, 1)
	assert.Equal(t, "Journal of Psychoceramics", rec.Works[0].Journal)
	assert.Equal(t, 2008, rec.Works[0].Year)
}

func TestRecord_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Record(context.Background(), "0000-0000-0000-0000")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecord_MinimalRecord(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"person": {"name": {"family-name": {"value": "Doe"}}}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	rec, err := client.Record(context.Background(), "0000-0001-0000-0001")

	require.NoError(t, err)
	assert.Equal(t, "Doe", rec.Name)
	// Identifier falls back to the requested iD.
	assert.Equal(t, "0000-0001-0000-0001", rec.OrcidID)
}

func TestSearchByName(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("q"), "given-and-family-names")
		assert.Equal(t, "1", r.URL.Query().Get("rows"))
		w.Write([]byte(`{"num-found": 1, "result": [{"orcid-identifier": {"path": "0000-0002-1825-0097"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	id, err := client.SearchByName(context.Background(), "Josiah Carberry")

	require.NoError(t, err)
	assert.Equal(t, "0000-0002-1825-0097", id)
}

func TestSearchByName_NoResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"num-found": 0, "result": []}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.SearchByName(context.Background(), "Nobody Anywhere")

	assert.ErrorIs(t, err, ErrNotFound)
}
