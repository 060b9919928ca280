package wikidata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchEntities_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "wbsearchentities", q.Get("action"))
		assert.Equal(t, "Grace Hopper", q.Get("search"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "item", q.Get("type"))

		w.Write([]byte(`{"search":[
			{"id":"Q11641","label":"Grace Hopper","description":"American computer scientist"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	res, err := client.SearchEntities(context.Background(), "Grace Hopper")

	require.NoError(t, err)
	assert.Equal(t, "Q11641", res.ID)
	assert.Equal(t, "American computer scientist", res.Description)
}

func TestSearchEntities_EmptyIsNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"search":[]}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.SearchEntities(context.Background(), "Nobody Anywhere")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntity_ParsesClaims(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "wbgetentities", q.Get("action"))
		assert.Equal(t, "Q11641", q.Get("ids"))

		w.Write([]byte(`{"entities":{"Q11641":{
			"descriptions":{"en":{"value":"American computer scientist"}},
			"claims":{
				"P2037":[{"mainsnak":{"datavalue":{"value":"ghopper"}}}],
				"P106":[
					{"mainsnak":{"datavalue":{"value":{"id":"Q82594"}}}},
					{"mainsnak":{"datavalue":{"value":{"id":"Q11631"}}}}
				]
			}
		}}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	ent, err := client.Entity(context.Background(), "Q11641")

	require.NoError(t, err)
	assert.Equal(t, "American computer scientist", ent.Description)
	assert.Equal(t, "ghopper", ent.StringClaim(PropGitHubUsername))
	assert.Equal(t, []string{"Q82594", "Q11631"}, ent.ItemClaims(PropOccupation))
	// Missing property yields zero values, not errors.
	assert.Empty(t, ent.StringClaim(PropOrcidID))
	assert.Empty(t, ent.ItemClaims(PropEmployer))
}

func TestEntity_MissingIDIsNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"entities":{}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Entity(context.Background(), "Q404")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntity_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Entity(context.Background(), "Q1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
