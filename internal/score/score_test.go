package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rolocard/enrich-cli/internal/model"
)

func TestScore_EmptyProfileNoSources(t *testing.T) {
	t.Parallel()

	got := Score(nil, model.EnrichedProfile{})
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestScore_VerifiedSourcesAndCompleteness(t *testing.T) {
	t.Parallel()

	sources := []model.SourceRef{
		{Source: model.SourceDocument},
		{Source: model.SourceGitHub, Verified: true},
		{Source: model.SourceORCID, Verified: true},
	}
	p := model.EnrichedProfile{
		Name:      "Ada Lovelace",
		Email:     "ada@example.org",
		Company:   "Analytical Engines Ltd",
		Title:     "Mathematician",
		GitHubURL: "https://github.com/ada",
	}

	// 0.5 + 2*0.15 + 0.2*(4/7) + 0.05 (email) + 0.05 (github url)
	want := 0.5 + 0.3 + 0.2*4.0/7.0 + 0.05 + 0.05
	assert.InDelta(t, want, Score(sources, p), 1e-9)
}

func TestScore_ClampsToOne(t *testing.T) {
	t.Parallel()

	sources := []model.SourceRef{
		{Source: model.SourceGitHub, Verified: true},
		{Source: model.SourceORCID, Verified: true},
		{Source: model.SourceGitLab, Verified: true},
		{Source: model.SourceDevTo, Verified: true},
	}
	p := model.EnrichedProfile{
		Name: "A", Email: "a@b.co", Phone: "1", Company: "C",
		Title: "T", Location: "L", Bio: "B",
		GitHubURL:   "https://github.com/a",
		LinkedInURL: "https://linkedin.com/in/a",
		OrcidURL:    "https://orcid.org/0000-0001-2345-6789",
	}

	assert.Equal(t, 1.0, Score(sources, p))
}

func TestScore_EmailBonus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		email string
		bonus bool
	}{
		{"valid", "dev@example.com", true},
		{"no tld", "dev@example", false},
		{"no at", "example.com", false},
		{"spaces", "d v@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base := Score(nil, model.EnrichedProfile{})
			got := Score(nil, model.EnrichedProfile{Email: tt.email})

			// The email always counts toward completeness.
			want := base + 0.2/7.0
			if tt.bonus {
				want += 0.05
			}
			assert.InDelta(t, want, got, 1e-9)
		})
	}
}

func TestScore_UnverifiedSourcesDoNotCount(t *testing.T) {
	t.Parallel()

	sources := []model.SourceRef{
		{Source: model.SourceStackOverflow, Verified: false},
		{Source: model.SourceWikidata, Verified: false},
	}
	assert.InDelta(t, 0.5, Score(sources, model.EnrichedProfile{}), 1e-9)
}
