package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolocard/enrich-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Runs ---

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "user-1", "resume.pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.Equal(t, 0, run.Progress)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusEnriching))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusEnriching, got.Status)
	assert.Equal(t, 50, got.Progress)

	require.NoError(t, st.CompleteRun(ctx, run.ID, "contact-1", true))

	got, err = st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "contact-1", got.ContactID)
	assert.True(t, got.Merged)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "user-1", "empty.pdf")
	require.NoError(t, err)

	require.NoError(t, st.FailRun(ctx, run.ID, "no usable fields in document"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "no usable fields in document", got.Error)
	assert.True(t, got.Status.Terminal())
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_UpdateRunStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateRunStatus(context.Background(), "missing", model.RunStatusEnriching)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListRuns_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r1, err := st.CreateRun(ctx, "user-1", "a.pdf")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "user-1", "b.pdf")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "user-2", "c.pdf")
	require.NoError(t, err)

	require.NoError(t, st.FailRun(ctx, r1.ID, "boom"))

	runs, err := st.ListRuns(ctx, RunFilter{OwnerUserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, r1.ID, runs[0].ID)

	runs, err = st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

// --- Contacts ---

func testContact(owner string) *model.Contact {
	return &model.Contact{
		OwnerUserID: owner,
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		Company:     "Initech",
		ExtractedData: model.RawProfile{
			Name:   "Jane Doe",
			Email:  "jane@example.com",
			Skills: []string{"Go"},
		},
		EnrichedData: model.EnrichedProfile{
			Name:   "Jane Doe",
			Email:  "jane@example.com",
			Skills: []string{"Go", "SQL"},
			Sources: []model.SourceRef{
				{Source: model.SourceDocument},
				{Source: model.SourceGitHub, URL: "https://github.com/jdoe", Verified: true},
			},
			ConfidenceScore: 0.78,
		},
		ConfidenceScore: 0.78,
		Tags:            []string{"conference"},
	}
}

func TestSQLite_ContactRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := testContact("user-1")
	require.NoError(t, st.CreateContact(ctx, c))
	require.NotEmpty(t, c.ID)

	got, err := st.GetContact(ctx, "user-1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, []string{"Go", "SQL"}, got.EnrichedData.Skills)
	assert.Len(t, got.EnrichedData.Sources, 2)
	assert.True(t, got.EnrichedData.Sources[1].Verified)
	assert.Equal(t, []string{"conference"}, got.Tags)
	assert.InDelta(t, 0.78, got.ConfidenceScore, 1e-9)
}

func TestSQLite_GetContact_WrongOwner(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := testContact("user-1")
	require.NoError(t, st.CreateContact(ctx, c))

	_, err := st.GetContact(ctx, "user-2", c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_UpdateContact(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := testContact("user-1")
	require.NoError(t, st.CreateContact(ctx, c))

	c.Name = "Jane A. Doe"
	c.EnrichedData.Name = "Jane A. Doe"
	c.EnrichedData.Sources = append(c.EnrichedData.Sources,
		model.SourceRef{Source: model.SourceORCID, Verified: true})
	c.ConfidenceScore = 0.93
	require.NoError(t, st.UpdateContact(ctx, c))

	got, err := st.GetContact(ctx, "user-1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane A. Doe", got.Name)
	assert.Len(t, got.EnrichedData.Sources, 3)
	assert.InDelta(t, 0.93, got.ConfidenceScore, 1e-9)
}

func TestSQLite_ListContacts_OwnerScoped(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateContact(ctx, testContact("user-1")))
	require.NoError(t, st.CreateContact(ctx, testContact("user-1")))
	require.NoError(t, st.CreateContact(ctx, testContact("user-2")))

	contacts, err := st.ListContacts(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, contacts, 2)

	contacts, err = st.ListContacts(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestSQLite_DeleteContact(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := testContact("user-1")
	require.NoError(t, st.CreateContact(ctx, c))
	require.NoError(t, st.DeleteContact(ctx, "user-1", c.ID))

	_, err := st.GetContact(ctx, "user-1", c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = st.DeleteContact(ctx, "user-1", c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- Credentials ---

func TestSQLite_Credentials(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetCredential(ctx, "user-1", "gemini", "api_key")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.SetCredential(ctx, "user-1", "gemini", "api_key", "secret-1"))

	secret, err := st.GetCredential(ctx, "user-1", "gemini", "api_key")
	require.NoError(t, err)
	assert.Equal(t, "secret-1", secret)

	// Upsert overwrites.
	require.NoError(t, st.SetCredential(ctx, "user-1", "gemini", "api_key", "secret-2"))
	secret, err = st.GetCredential(ctx, "user-1", "gemini", "api_key")
	require.NoError(t, err)
	assert.Equal(t, "secret-2", secret)

	// Scoped per owner.
	_, err = st.GetCredential(ctx, "user-2", "gemini", "api_key")
	assert.ErrorIs(t, err, ErrNotFound)
}
