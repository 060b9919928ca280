// Package resolver derives per-source candidate identifiers from a raw
// profile. Resolution never fails: anything that goes wrong degrades to
// "no identifier" for that source.
package resolver

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/pkg/github"
	"github.com/rolocard/enrich-cli/pkg/orcid"
)

var (
	githubURLRe = regexp.MustCompile(`github\.com/([A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9]){0,38})`)
	orcidIDRe   = regexp.MustCompile(`(\d{4}-\d{4}-\d{4}-\d{3}[\dX])`)
)

// Resolver derives candidate identifiers, using public search endpoints
// when no profile URL is available.
type Resolver struct {
	github github.Client
	orcid  orcid.Client
}

// New creates a Resolver. Either client may be nil, in which case the
// corresponding search fallback is skipped.
func New(gh github.Client, oc orcid.Client) *Resolver {
	return &Resolver{github: gh, orcid: oc}
}

// Resolve produces zero-or-one candidate identifier per supported source.
func (r *Resolver) Resolve(ctx context.Context, raw model.RawProfile) model.Identifiers {
	log := zap.L().With(zap.String("component", "resolver"))

	ids := model.Identifiers{
		FullName: strings.TrimSpace(raw.Name),
		NameSlug: NameSlug(raw.Name),
	}

	// Code-hosting username: URL pattern first, email reverse search second.
	if m := githubURLRe.FindStringSubmatch(raw.GitHubURL); m != nil {
		ids.GitHubUsername = m[1]
	} else if m := githubURLRe.FindStringSubmatch(raw.Website); m != nil {
		ids.GitHubUsername = m[1]
	} else if raw.Email != "" && r.github != nil {
		login, err := r.github.SearchUserByEmail(ctx, raw.Email)
		if err != nil {
			log.Debug("github email search failed", zap.Error(err))
		} else {
			ids.GitHubUsername = login
		}
	}

	// Academic-registry iD: URL pattern first, name search second.
	if m := orcidIDRe.FindStringSubmatch(raw.OrcidURL); m != nil {
		ids.OrcidID = m[1]
	} else if ids.FullName != "" && r.orcid != nil {
		id, err := r.orcid.SearchByName(ctx, ids.FullName)
		if err != nil {
			log.Debug("orcid name search failed", zap.Error(err))
		} else {
			ids.OrcidID = id
		}
	}

	// Mirror platforms reuse the code-hosting handle when present,
	// otherwise fall back to the slugged name.
	ids.GitLabUsername = ids.GitHubUsername
	if ids.GitLabUsername == "" {
		ids.GitLabUsername = ids.NameSlug
	}
	ids.DevToUsername = ids.GitHubUsername
	if ids.DevToUsername == "" {
		ids.DevToUsername = ids.NameSlug
	}

	return ids
}

// NameSlug normalizes a full name for slug-style lookups: diacritics
// folded, lower-cased, whitespace removed.
func NameSlug(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
