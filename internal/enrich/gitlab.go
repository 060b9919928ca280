package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/pkg/gitlab"
)

// GitLabSource enriches from a GitLab profile. The username is a
// mirror-handle guess, but a hit resolves an exact username, so a match
// is verified.
type GitLabSource struct {
	client gitlab.Client
}

// NewGitLabSource creates the GitLab extractor.
func NewGitLabSource(client gitlab.Client) *GitLabSource {
	return &GitLabSource{client: client}
}

func (s *GitLabSource) Kind() model.SourceKind { return model.SourceGitLab }

func (s *GitLabSource) Lookup(ctx context.Context, ids model.Identifiers) (*model.EnrichmentRecord, error) {
	if ids.GitLabUsername == "" {
		return nil, nil
	}

	user, err := s.client.UserByUsername(ctx, ids.GitLabUsername)
	if err != nil {
		if eris.Is(err, gitlab.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	rec := &model.EnrichmentRecord{
		Source:   model.SourceGitLab,
		URL:      user.WebURL,
		Verified: true,
		Profile: model.PartialProfile{
			Name:     user.Name,
			Company:  user.Organization,
			Title:    user.JobTitle,
			Location: user.Location,
			Bio:      user.Bio,
			Website:  user.WebsiteURL,
		},
	}

	projects, err := s.client.Projects(ctx, user.ID)
	if err != nil {
		zap.L().Debug("gitlab projects fetch failed", zap.Int("user_id", user.ID), zap.Error(err))
		return rec, nil
	}
	for _, p := range projects {
		rec.Projects = append(rec.Projects, model.Repository{
			Name:        p.Name,
			URL:         p.WebURL,
			Description: p.Description,
			Stars:       p.Stars,
		})
	}

	return rec, nil
}
