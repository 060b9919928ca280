package gitlab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserByUsername_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "jdoe", r.URL.Query().Get("username"))
		assert.Equal(t, "glpat-test", r.Header.Get("PRIVATE-TOKEN"))

		w.Write([]byte(`[{
			"id": 123,
			"username": "jdoe",
			"name": "Jane Doe",
			"bio": "infra person",
			"location": "Berlin",
			"web_url": "https://gitlab.com/jdoe"
		}]`))
	}))
	defer srv.Close()

	client := NewClient("glpat-test", WithBaseURL(srv.URL))
	u, err := client.UserByUsername(context.Background(), "jdoe")

	require.NoError(t, err)
	assert.Equal(t, 123, u.ID)
	assert.Equal(t, "Jane Doe", u.Name)
}

func TestUserByUsername_EmptyListIsNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	_, err := client.UserByUsername(context.Background(), "ghost")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjects(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/123/projects", r.URL.Path)
		assert.Equal(t, "star_count", r.URL.Query().Get("order_by"))
		w.Write([]byte(`[{"name":"tool","web_url":"https://gitlab.com/jdoe/tool","star_count":7}]`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	projects, err := client.Projects(context.Background(), 123)

	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 7, projects[0].Stars)
}

func TestUserByUsername_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	_, err := client.UserByUsername(context.Background(), "jdoe")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
