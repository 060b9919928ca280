package stackoverflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersByName_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "jane doe", r.URL.Query().Get("inname"))
		assert.Equal(t, "reputation", r.URL.Query().Get("sort"))
		assert.Equal(t, "stackoverflow", r.URL.Query().Get("site"))
		assert.Empty(t, r.URL.Query().Get("key"))

		w.Write([]byte(`{"items":[
			{"user_id":1,"display_name":"Jane Doe","location":"Berlin","reputation":9001,"link":"https://stackoverflow.com/users/1"},
			{"user_id":2,"display_name":"Jane Doering","reputation":12}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	users, err := client.UsersByName(context.Background(), "jane doe")

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, 9001, users[0].Reputation)
	assert.Equal(t, "Jane Doe", users[0].DisplayName)
}

func TestUsersByName_EmptyIsNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	_, err := client.UsersByName(context.Background(), "nobody")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsersByName_SendsKeyWhenConfigured(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "app-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"items":[{"user_id":1,"display_name":"x"}]}`))
	}))
	defer srv.Close()

	client := NewClient("app-key", WithBaseURL(srv.URL))
	_, err := client.UsersByName(context.Background(), "x")
	require.NoError(t, err)
}

func TestTopTags(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/42/top-tags", r.URL.Path)
		assert.Equal(t, "stackoverflow", r.URL.Query().Get("site"))
		w.Write([]byte(`{"items":[{"tag_name":"go"},{"tag_name":"postgresql"}]}`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	tags, err := client.TopTags(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, []string{"go", "postgresql"}, tags)
}

func TestGet_ThrottledError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_name":"throttle_violation"}`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	_, err := client.TopTags(context.Background(), 42)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
