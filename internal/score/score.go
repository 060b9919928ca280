// Package score computes the bounded trust score for an enriched profile.
package score

import (
	"regexp"

	"github.com/rolocard/enrich-cli/internal/model"
)

// emailRe matches a basic local@domain.tld shape; anything fancier is
// the mail server's problem.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Scoring constants. These are fixed so scores stay comparable across
// releases; change them and every stored confidence shifts meaning.
const (
	base            = 0.5
	perVerified     = 0.15
	completeness    = 0.2
	emailBonus      = 0.05
	profileURLBonus = 0.05
	canonicalFields = 7
)

// Score computes the confidence score from source provenance and field
// completeness, clamped to [0, 1]. An all-empty profile with zero
// sources scores exactly 0.5.
func Score(sources []model.SourceRef, p model.EnrichedProfile) float64 {
	s := base

	for _, src := range sources {
		if src.Verified {
			s += perVerified
		}
	}

	filled := 0
	for _, f := range []string{p.Name, p.Email, p.Phone, p.Company, p.Title, p.Location, p.Bio} {
		if f != "" {
			filled++
		}
	}
	s += completeness * float64(filled) / canonicalFields

	if p.Email != "" && emailRe.MatchString(p.Email) {
		s += emailBonus
	}
	if p.GitHubURL != "" {
		s += profileURLBonus
	}
	if p.LinkedInURL != "" {
		s += profileURLBonus
	}
	if p.OrcidURL != "" {
		s += profileURLBonus
	}

	if s > 1.0 {
		s = 1.0
	}
	return s
}
