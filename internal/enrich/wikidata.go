package enrich

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/pkg/wikidata"
)

// WikidataSource enriches from the structured knowledge base. Matching is
// a heuristic label search, so records are never verified.
type WikidataSource struct {
	client wikidata.Client
}

// NewWikidataSource creates the Wikidata extractor.
func NewWikidataSource(client wikidata.Client) *WikidataSource {
	return &WikidataSource{client: client}
}

func (s *WikidataSource) Kind() model.SourceKind { return model.SourceWikidata }

func (s *WikidataSource) Lookup(ctx context.Context, ids model.Identifiers) (*model.EnrichmentRecord, error) {
	if ids.FullName == "" {
		return nil, nil
	}

	hit, err := s.client.SearchEntities(ctx, ids.FullName)
	if err != nil {
		if eris.Is(err, wikidata.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	entity, err := s.client.Entity(ctx, hit.ID)
	if err != nil {
		if eris.Is(err, wikidata.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	rec := &model.EnrichmentRecord{
		Source:   model.SourceWikidata,
		URL:      "https://www.wikidata.org/wiki/" + entity.ID,
		Verified: false,
		Profile: model.PartialProfile{
			Name:    hit.Label,
			Bio:     entity.Description,
			Website: entity.StringClaim(wikidata.PropOfficialSite),
		},
	}

	if orcidID := entity.StringClaim(wikidata.PropOrcidID); orcidID != "" {
		rec.Profile.OrcidURL = "https://orcid.org/" + orcidID
	}
	if login := entity.StringClaim(wikidata.PropGitHubUsername); login != "" {
		rec.Profile.GitHubURL = "https://github.com/" + login
	}

	return rec, nil
}
