package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/pkg/github"
)

// GitHubSource enriches from a GitHub user profile. Lookups are keyed by
// exact login, so matches are verified.
type GitHubSource struct {
	client github.Client
}

// NewGitHubSource creates the GitHub extractor.
func NewGitHubSource(client github.Client) *GitHubSource {
	return &GitHubSource{client: client}
}

func (s *GitHubSource) Kind() model.SourceKind { return model.SourceGitHub }

func (s *GitHubSource) Lookup(ctx context.Context, ids model.Identifiers) (*model.EnrichmentRecord, error) {
	if ids.GitHubUsername == "" {
		return nil, nil
	}

	user, err := s.client.User(ctx, ids.GitHubUsername)
	if err != nil {
		if eris.Is(err, github.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	rec := &model.EnrichmentRecord{
		Source:   model.SourceGitHub,
		URL:      user.HTMLURL,
		Verified: true,
		Profile: model.PartialProfile{
			Name:      user.Name,
			Email:     user.Email,
			Company:   user.Company,
			Location:  user.Location,
			Bio:       user.Bio,
			Website:   user.Blog,
			GitHubURL: user.HTMLURL,
		},
	}

	repos, err := s.client.Repos(ctx, ids.GitHubUsername)
	if err != nil {
		// The profile alone is still a valid contribution.
		zap.L().Debug("github repos fetch failed", zap.String("login", ids.GitHubUsername), zap.Error(err))
		return rec, nil
	}

	langs := make(map[string]bool)
	for _, r := range repos {
		rec.Repositories = append(rec.Repositories, model.Repository{
			Name:        r.Name,
			URL:         r.HTMLURL,
			Description: r.Description,
			Language:    r.Language,
			Stars:       r.Stars,
		})
		if r.Language != "" && !langs[r.Language] {
			langs[r.Language] = true
			rec.Profile.Skills = append(rec.Profile.Skills, r.Language)
		}
	}

	return rec, nil
}
