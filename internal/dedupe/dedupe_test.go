package dedupe

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/rolocard/enrich-cli/internal/model"
)

// simFunc adapts a function to the Similarity interface and counts calls.
type simFunc struct {
	fn    func(a, b string) (float64, error)
	calls int
}

func (s *simFunc) Similarity(_ context.Context, a, b string) (float64, error) {
	s.calls++
	return s.fn(a, b)
}

func TestCheck_NoExistingContacts(t *testing.T) {
	t.Parallel()

	sim := &simFunc{fn: func(_, _ string) (float64, error) { return 1.0, nil }}
	engine := NewEngine(sim)

	got := engine.Check(context.Background(), model.EnrichedProfile{Name: "New"}, nil)

	assert.False(t, got.IsDuplicate)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Zero(t, sim.calls, "no similarity calls expected without existing contacts")
}

func TestCheck_ThresholdIsStrict(t *testing.T) {
	t.Parallel()

	existing := []model.Contact{{ID: "c1", Name: "Same Person"}}

	tests := []struct {
		name string
		sim  float64
		dup  bool
	}{
		{"exactly at threshold", 0.85, false},
		{"just above threshold", 0.850001, true},
		{"well below", 0.2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := NewEngine(&simFunc{fn: func(_, _ string) (float64, error) { return tt.sim, nil }})
			got := engine.Check(context.Background(), model.EnrichedProfile{Name: "Same Person"}, existing)

			assert.Equal(t, tt.dup, got.IsDuplicate)
			if tt.dup {
				assert.Equal(t, "c1", got.MatchedID)
				assert.Equal(t, tt.sim, got.Confidence)
			}
		})
	}
}

func TestCheck_FirstMatchShortCircuits(t *testing.T) {
	t.Parallel()

	sim := &simFunc{fn: func(_, b string) (float64, error) {
		return 0.9, nil // every contact would match
	}}
	engine := NewEngine(sim)

	existing := []model.Contact{
		{ID: "first", Name: "A"},
		{ID: "second", Name: "B"},
		{ID: "third", Name: "C"},
	}
	got := engine.Check(context.Background(), model.EnrichedProfile{Name: "A"}, existing)

	assert.True(t, got.IsDuplicate)
	assert.Equal(t, "first", got.MatchedID)
	assert.Equal(t, 1, sim.calls)
}

func TestCheck_SimilarityErrorMeansNoMatch(t *testing.T) {
	t.Parallel()

	engine := NewEngine(&simFunc{fn: func(_, _ string) (float64, error) {
		return 0, eris.New("embedding service down")
	}})

	existing := []model.Contact{{ID: "c1", Name: "X"}, {ID: "c2", Name: "Y"}}
	got := engine.Check(context.Background(), model.EnrichedProfile{Name: "X"}, existing)

	assert.False(t, got.IsDuplicate)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestComparisonText(t *testing.T) {
	t.Parallel()

	got := comparisonText("Ada Lovelace", "", "  ", "Analytical Engines", "ENGINEER")
	assert.Equal(t, "ada lovelace | analytical engines | engineer", got)
}

func TestMergeContacts_NewValuesOverwrite(t *testing.T) {
	t.Parallel()

	existing := &model.Contact{
		ID:    "c1",
		Name:  "Old Name",
		Email: "old@example.com",
		EnrichedData: model.EnrichedProfile{
			Name:    "Old Name",
			Email:   "old@example.com",
			Company: "Old Co",
			Sources: []model.SourceRef{{Source: model.SourceDocument}},
		},
	}
	candidate := model.EnrichedProfile{
		Name:    "New Name",
		Title:   "Engineer",
		Sources: []model.SourceRef{{Source: model.SourceGitHub, Verified: true}},
	}

	MergeContacts(existing, candidate)

	assert.Equal(t, "New Name", existing.EnrichedData.Name)
	assert.Equal(t, "New Name", existing.Name)
	// Fields the candidate left empty survive.
	assert.Equal(t, "old@example.com", existing.EnrichedData.Email)
	assert.Equal(t, "Old Co", existing.EnrichedData.Company)
	assert.Equal(t, "Engineer", existing.EnrichedData.Title)
}

func TestMergeContacts_SourcesAppend(t *testing.T) {
	t.Parallel()

	existing := &model.Contact{
		EnrichedData: model.EnrichedProfile{
			Sources: []model.SourceRef{{Source: model.SourceDocument}},
		},
	}
	candidate := model.EnrichedProfile{
		Sources: []model.SourceRef{
			{Source: model.SourceDocument},
			{Source: model.SourceGitHub, Verified: true},
		},
	}

	MergeContacts(existing, candidate)

	assert.Len(t, existing.EnrichedData.Sources, 3)
}

func TestMergeContacts_Rescores(t *testing.T) {
	t.Parallel()

	existing := &model.Contact{
		EnrichedData: model.EnrichedProfile{
			Name:            "N",
			Sources:         []model.SourceRef{{Source: model.SourceDocument}},
			ConfidenceScore: 0.53,
		},
		ConfidenceScore: 0.53,
	}
	candidate := model.EnrichedProfile{
		Sources: []model.SourceRef{{Source: model.SourceGitHub, Verified: true}},
	}

	MergeContacts(existing, candidate)

	assert.Greater(t, existing.ConfidenceScore, 0.53)
	assert.Equal(t, existing.ConfidenceScore, existing.EnrichedData.ConfidenceScore)
}

func TestMergeContacts_SkillsUnion(t *testing.T) {
	t.Parallel()

	existing := &model.Contact{
		EnrichedData: model.EnrichedProfile{Skills: []string{"Go", "SQL"}},
	}
	candidate := model.EnrichedProfile{Skills: []string{"SQL", "Rust"}}

	MergeContacts(existing, candidate)

	assert.Equal(t, []string{"Go", "SQL", "Rust"}, existing.EnrichedData.Skills)
}
