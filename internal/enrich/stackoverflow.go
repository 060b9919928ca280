package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/pkg/stackoverflow"
)

// StackOverflowSource enriches from Stack Overflow. Matching is a
// best-effort display-name search, so records are never verified.
type StackOverflowSource struct {
	client stackoverflow.Client
}

// NewStackOverflowSource creates the Stack Overflow extractor.
func NewStackOverflowSource(client stackoverflow.Client) *StackOverflowSource {
	return &StackOverflowSource{client: client}
}

func (s *StackOverflowSource) Kind() model.SourceKind { return model.SourceStackOverflow }

func (s *StackOverflowSource) Lookup(ctx context.Context, ids model.Identifiers) (*model.EnrichmentRecord, error) {
	if ids.FullName == "" {
		return nil, nil
	}

	users, err := s.client.UsersByName(ctx, ids.FullName)
	if err != nil {
		if eris.Is(err, stackoverflow.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	// Highest-reputation hit wins; the API already sorts by reputation.
	user := users[0]

	rec := &model.EnrichmentRecord{
		Source:   model.SourceStackOverflow,
		URL:      user.Link,
		Verified: false,
		Profile: model.PartialProfile{
			Name:     user.DisplayName,
			Location: user.Location,
			Website:  user.WebsiteURL,
		},
	}

	tags, err := s.client.TopTags(ctx, user.UserID)
	if err != nil {
		zap.L().Debug("stackoverflow top tags fetch failed", zap.Int("user_id", user.UserID), zap.Error(err))
		return rec, nil
	}
	rec.Profile.Skills = tags

	return rec, nil
}
