// Package dedupe decides whether a freshly enriched profile duplicates
// one of the user's existing contacts.
package dedupe

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/internal/score"
)

// Threshold is the similarity a pair must strictly exceed to count as a
// duplicate.
const Threshold = 0.85

// Similarity scores two texts in [0, 1]. pkg/gemini satisfies this.
type Similarity interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Result is the outcome of a duplicate check.
type Result struct {
	IsDuplicate bool    `json:"is_duplicate"`
	MatchedID   string  `json:"matched_id,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Engine compares candidates against existing contacts.
type Engine struct {
	sim Similarity
}

// NewEngine creates a deduplication engine.
func NewEngine(sim Similarity) *Engine {
	return &Engine{sim: sim}
}

// Check scans existing contacts in order and returns the first whose
// similarity strictly exceeds Threshold. This is first-over-threshold by
// policy, not best-match: the scan short-circuits as soon as one contact
// qualifies. Similarity failures score 0, so a broken similarity service
// can only ever produce "not a duplicate" — failing toward a spurious
// new contact is safer than wrongly merging two people.
//
// With no existing contacts the check returns immediately without any
// external call.
func (e *Engine) Check(ctx context.Context, candidate model.EnrichedProfile, existing []model.Contact) Result {
	if len(existing) == 0 {
		return Result{IsDuplicate: false, Confidence: 1.0}
	}

	candText := comparisonText(candidate.Name, candidate.Email, candidate.Phone,
		candidate.Company, candidate.Title, candidate.Location)

	for _, contact := range existing {
		existingText := comparisonText(contact.Name, contact.Email, contact.Phone,
			contact.Company, contact.Title, contact.Location)

		sim, err := e.sim.Similarity(ctx, candText, existingText)
		if err != nil {
			zap.L().Warn("similarity check failed, treating as no match",
				zap.String("contact_id", contact.ID),
				zap.Error(err),
			)
			sim = 0
		}

		if sim > Threshold {
			return Result{IsDuplicate: true, MatchedID: contact.ID, Confidence: sim}
		}
	}

	return Result{IsDuplicate: false, Confidence: 1.0}
}

// comparisonText flattens the identity fields into the canonical
// comparison string: lower-cased, pipe-joined, empty fields omitted.
func comparisonText(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, strings.ToLower(f))
		}
	}
	return strings.Join(parts, " | ")
}

// MergeContacts folds a new enrichment run into an existing contact.
// Unlike the collection merge, NEW non-empty values win here: a
// re-enrichment is expected to refresh stale fields. Sources append,
// never replace, and the confidence score is recomputed over the
// combined source list.
func MergeContacts(existing *model.Contact, candidate model.EnrichedProfile) {
	merged := existing.EnrichedData

	overwrite(&merged.Name, candidate.Name)
	overwrite(&merged.Email, candidate.Email)
	overwrite(&merged.Phone, candidate.Phone)
	overwrite(&merged.Company, candidate.Company)
	overwrite(&merged.Title, candidate.Title)
	overwrite(&merged.Location, candidate.Location)
	overwrite(&merged.Bio, candidate.Bio)
	overwrite(&merged.Website, candidate.Website)
	overwrite(&merged.GitHubURL, candidate.GitHubURL)
	overwrite(&merged.LinkedInURL, candidate.LinkedInURL)
	overwrite(&merged.OrcidURL, candidate.OrcidURL)

	merged.Skills = unionStrings(merged.Skills, candidate.Skills)
	for _, e := range candidate.Education {
		if !containsEducation(merged.Education, e) {
			merged.Education = append(merged.Education, e)
		}
	}
	if len(candidate.Experience) > 0 {
		merged.Experience = candidate.Experience
	}
	if len(candidate.Repositories) > 0 {
		merged.Repositories = candidate.Repositories
	}
	if len(candidate.Publications) > 0 {
		merged.Publications = candidate.Publications
	}
	if len(candidate.Projects) > 0 {
		merged.Projects = candidate.Projects
	}
	if len(candidate.Articles) > 0 {
		merged.Articles = candidate.Articles
	}

	merged.Sources = append(merged.Sources, candidate.Sources...)
	merged.ConfidenceScore = score.Score(merged.Sources, merged)

	existing.EnrichedData = merged
	existing.Name = merged.Name
	existing.Email = merged.Email
	existing.Phone = merged.Phone
	existing.Company = merged.Company
	existing.Title = merged.Title
	existing.Location = merged.Location
	existing.ConfidenceScore = merged.ConfidenceScore
}

func overwrite(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func unionStrings(base, add []string) []string {
	for _, v := range add {
		if v == "" {
			continue
		}
		seen := false
		for _, b := range base {
			if b == v {
				seen = true
				break
			}
		}
		if !seen {
			base = append(base, v)
		}
	}
	return base
}

func containsEducation(list []model.Education, e model.Education) bool {
	for _, x := range list {
		if x == e {
			return true
		}
	}
	return false
}
