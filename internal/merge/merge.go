// Package merge combines a raw extraction with enrichment records into
// one canonical profile.
package merge

import (
	"slices"

	"github.com/rolocard/enrich-cli/internal/model"
)

// Merge combines the raw profile with zero or more enrichment records.
// Scalar fields follow first-non-empty-wins in precedence order: the raw
// profile first, then records in the order they were collected. Skills
// and education are unioned, never overwritten. Structured per-source
// arrays attach verbatim, last writer wins. Merge is pure: identical
// inputs always yield an identical profile.
//
// The sources list and confidence score are the orchestrator's to add.
func Merge(raw model.RawProfile, records []model.EnrichmentRecord) model.EnrichedProfile {
	p := model.EnrichedProfile{
		Name:        raw.Name,
		Email:       raw.Email,
		Phone:       raw.Phone,
		Company:     raw.Company,
		Title:       raw.Title,
		Location:    raw.Location,
		Bio:         raw.Bio,
		Website:     raw.Website,
		GitHubURL:   raw.GitHubURL,
		LinkedInURL: raw.LinkedInURL,
		OrcidURL:    raw.OrcidURL,
		Skills:      slices.Clone(raw.Skills),
		Education:   slices.Clone(raw.Education),
		Experience:  slices.Clone(raw.Experience),
	}

	for _, rec := range records {
		fillScalars(&p, rec.Profile)
		p.Skills = unionStrings(p.Skills, rec.Profile.Skills)
		p.Education = unionEducation(p.Education, rec.Profile.Education)

		if len(rec.Repositories) > 0 {
			p.Repositories = rec.Repositories
		}
		if len(rec.Publications) > 0 {
			p.Publications = rec.Publications
		}
		if len(rec.Projects) > 0 {
			p.Projects = rec.Projects
		}
		if len(rec.Articles) > 0 {
			p.Articles = rec.Articles
		}
	}

	return p
}

// fillScalars sets each empty scalar from the partial profile. A field
// populated by an earlier-precedence source is never overwritten.
func fillScalars(p *model.EnrichedProfile, src model.PartialProfile) {
	fill(&p.Name, src.Name)
	fill(&p.Email, src.Email)
	fill(&p.Company, src.Company)
	fill(&p.Title, src.Title)
	fill(&p.Location, src.Location)
	fill(&p.Bio, src.Bio)
	fill(&p.Website, src.Website)
	fill(&p.GitHubURL, src.GitHubURL)
	fill(&p.LinkedInURL, src.LinkedInURL)
	fill(&p.OrcidURL, src.OrcidURL)
}

func fill(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}

// unionStrings appends unseen values, preserving first-seen order.
func unionStrings(base, add []string) []string {
	for _, v := range add {
		if v != "" && !slices.Contains(base, v) {
			base = append(base, v)
		}
	}
	return base
}

// unionEducation deduplicates by exact struct equality.
func unionEducation(base, add []model.Education) []model.Education {
	for _, e := range add {
		if !slices.Contains(base, e) {
			base = append(base, e)
		}
	}
	return base
}
