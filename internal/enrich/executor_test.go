package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/rolocard/enrich-cli/internal/model"
)

type fakeSource struct {
	kind  model.SourceKind
	rec   *model.EnrichmentRecord
	err   error
	delay time.Duration
}

func (f *fakeSource) Kind() model.SourceKind { return f.kind }

func (f *fakeSource) Lookup(ctx context.Context, _ model.Identifiers) (*model.EnrichmentRecord, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.rec, f.err
}

func record(kind model.SourceKind, name string) *model.EnrichmentRecord {
	return &model.EnrichmentRecord{
		Source:  kind,
		Profile: model.PartialProfile{Name: name},
	}
}

func TestExecutor_ResultsFollowPrecedenceOrder(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	// The slower source comes first in precedence and must still land
	// first in the results.
	registry.Register(&fakeSource{kind: model.SourceGitHub, rec: record(model.SourceGitHub, "gh"), delay: 50 * time.Millisecond})
	registry.Register(&fakeSource{kind: model.SourceORCID, rec: record(model.SourceORCID, "oc")})

	e := NewExecutor(registry, WithOrder([]model.SourceKind{model.SourceGitHub, model.SourceORCID}))
	records := e.Run(context.Background(), model.Identifiers{})

	assert.Len(t, records, 2)
	assert.Equal(t, model.SourceGitHub, records[0].Source)
	assert.Equal(t, model.SourceORCID, records[1].Source)
}

func TestExecutor_FailuresAreSoft(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(&fakeSource{kind: model.SourceGitHub, err: eris.New("api down")})
	registry.Register(&fakeSource{kind: model.SourceORCID, rec: record(model.SourceORCID, "oc")})

	e := NewExecutor(registry, WithOrder([]model.SourceKind{model.SourceGitHub, model.SourceORCID}))
	records := e.Run(context.Background(), model.Identifiers{})

	assert.Len(t, records, 1)
	assert.Equal(t, model.SourceORCID, records[0].Source)
}

func TestExecutor_NoMatchIsSkipped(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(&fakeSource{kind: model.SourceGitHub}) // nil, nil

	e := NewExecutor(registry, WithOrder([]model.SourceKind{model.SourceGitHub}))
	records := e.Run(context.Background(), model.Identifiers{})

	assert.Empty(t, records)
}

func TestExecutor_UnregisteredSourceIgnored(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(&fakeSource{kind: model.SourceGitHub, rec: record(model.SourceGitHub, "gh")})

	e := NewExecutor(registry) // full default order, mostly unregistered
	records := e.Run(context.Background(), model.Identifiers{})

	assert.Len(t, records, 1)
}

func TestExecutor_TimeoutDropsSlowSource(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(&fakeSource{kind: model.SourceGitHub, rec: record(model.SourceGitHub, "gh"), delay: 200 * time.Millisecond})
	registry.Register(&fakeSource{kind: model.SourceORCID, rec: record(model.SourceORCID, "oc")})

	e := NewExecutor(registry,
		WithOrder([]model.SourceKind{model.SourceGitHub, model.SourceORCID}),
		WithTimeout(20*time.Millisecond),
	)
	records := e.Run(context.Background(), model.Identifiers{})

	assert.Len(t, records, 1)
	assert.Equal(t, model.SourceORCID, records[0].Source)
}
