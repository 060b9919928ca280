package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/pkg/devto"
)

// DevToSource enriches from a DEV profile. A hit resolves an exact
// username, so a match is verified.
type DevToSource struct {
	client devto.Client
}

// NewDevToSource creates the DEV extractor.
func NewDevToSource(client devto.Client) *DevToSource {
	return &DevToSource{client: client}
}

func (s *DevToSource) Kind() model.SourceKind { return model.SourceDevTo }

func (s *DevToSource) Lookup(ctx context.Context, ids model.Identifiers) (*model.EnrichmentRecord, error) {
	if ids.DevToUsername == "" {
		return nil, nil
	}

	user, err := s.client.UserByUsername(ctx, ids.DevToUsername)
	if err != nil {
		if eris.Is(err, devto.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	rec := &model.EnrichmentRecord{
		Source:   model.SourceDevTo,
		URL:      "https://dev.to/" + user.Username,
		Verified: true,
		Profile: model.PartialProfile{
			Name:     user.Name,
			Location: user.Location,
			Bio:      user.Summary,
			Website:  user.WebsiteURL,
		},
	}
	if user.GitHubUsername != "" {
		rec.Profile.GitHubURL = "https://github.com/" + user.GitHubUsername
	}

	articles, err := s.client.Articles(ctx, user.Username)
	if err != nil {
		zap.L().Debug("devto articles fetch failed", zap.String("username", user.Username), zap.Error(err))
		return rec, nil
	}
	for _, a := range articles {
		rec.Articles = append(rec.Articles, model.Article{
			Title:       a.Title,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}

	return rec, nil
}
