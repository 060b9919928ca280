package enrich

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/pkg/orcid"
)

// OrcidSource enriches from an ORCID public record. Lookups are keyed by
// exact iD, so matches are verified.
type OrcidSource struct {
	client orcid.Client
}

// NewOrcidSource creates the ORCID extractor.
func NewOrcidSource(client orcid.Client) *OrcidSource {
	return &OrcidSource{client: client}
}

func (s *OrcidSource) Kind() model.SourceKind { return model.SourceORCID }

func (s *OrcidSource) Lookup(ctx context.Context, ids model.Identifiers) (*model.EnrichmentRecord, error) {
	if ids.OrcidID == "" {
		return nil, nil
	}

	rec, err := s.client.Record(ctx, ids.OrcidID)
	if err != nil {
		if eris.Is(err, orcid.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	url := "https://orcid.org/" + rec.OrcidID
	out := &model.EnrichmentRecord{
		Source:   model.SourceORCID,
		URL:      url,
		Verified: true,
		Profile: model.PartialProfile{
			Name:     rec.Name,
			Email:    rec.Email,
			Bio:      rec.Bio,
			Skills:   rec.Keywords,
			OrcidURL: url,
		},
	}
	if len(rec.URLs) > 0 {
		out.Profile.Website = rec.URLs[0]
	}
	if len(rec.Employments) > 0 {
		out.Profile.Company = rec.Employments[0].Organization
		out.Profile.Title = rec.Employments[0].Role
	}
	for _, edu := range rec.Educations {
		out.Profile.Education = append(out.Profile.Education, model.Education{
			Institution: edu.Organization,
			Degree:      edu.Role,
		})
	}
	for _, w := range rec.Works {
		out.Publications = append(out.Publications, model.Publication{
			Title:   w.Title,
			Journal: w.Journal,
			Year:    w.Year,
			URL:     w.URL,
		})
	}

	return out, nil
}
