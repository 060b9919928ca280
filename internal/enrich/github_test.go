package enrich

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/pkg/github"
)

type fakeGitHubClient struct {
	user     *github.User
	userErr  error
	repos    []github.Repo
	repoErr  error
	searched string
}

func (f *fakeGitHubClient) User(_ context.Context, login string) (*github.User, error) {
	return f.user, f.userErr
}

func (f *fakeGitHubClient) SearchUserByEmail(_ context.Context, email string) (string, error) {
	f.searched = email
	return "", github.ErrNotFound
}

func (f *fakeGitHubClient) Repos(context.Context, string) ([]github.Repo, error) {
	return f.repos, f.repoErr
}

func TestGitHubSource_Lookup(t *testing.T) {
	t.Parallel()

	client := &fakeGitHubClient{
		user: &github.User{
			Login:   "jdoe",
			Name:    "Jane Doe",
			Company: "Acme",
			Bio:     "builds things",
			HTMLURL: "https://github.com/jdoe",
		},
		repos: []github.Repo{
			{Name: "tool", Language: "Go", Stars: 12},
			{Name: "scripts", Language: "Go"},
			{Name: "site", Language: "TypeScript"},
		},
	}

	rec, err := NewGitHubSource(client).Lookup(context.Background(), model.Identifiers{GitHubUsername: "jdoe"})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, model.SourceGitHub, rec.Source)
	assert.True(t, rec.Verified)
	assert.Equal(t, "https://github.com/jdoe", rec.URL)
	assert.Equal(t, "Jane Doe", rec.Profile.Name)
	// Repo languages become skills, deduplicated.
	assert.Equal(t, []string{"Go", "TypeScript"}, rec.Profile.Skills)
	assert.Len(t, rec.Repositories, 3)
}

func TestGitHubSource_NoUsernameSkips(t *testing.T) {
	t.Parallel()

	rec, err := NewGitHubSource(&fakeGitHubClient{}).Lookup(context.Background(), model.Identifiers{})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGitHubSource_NotFoundIsSoft(t *testing.T) {
	t.Parallel()

	client := &fakeGitHubClient{userErr: github.ErrNotFound}
	rec, err := NewGitHubSource(client).Lookup(context.Background(), model.Identifiers{GitHubUsername: "ghost"})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGitHubSource_RepoFailureKeepsProfile(t *testing.T) {
	t.Parallel()

	client := &fakeGitHubClient{
		user:    &github.User{Login: "jdoe", Name: "Jane Doe"},
		repoErr: eris.New("rate limited"),
	}

	rec, err := NewGitHubSource(client).Lookup(context.Background(), model.Identifiers{GitHubUsername: "jdoe"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Jane Doe", rec.Profile.Name)
	assert.Empty(t, rec.Repositories)
}
