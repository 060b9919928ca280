package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/internal/resilience"
)

// Executor fans out lookups across all configured sources. Each source
// gets an independent timeout so one unreachable provider cannot stall
// the rest, and a per-source circuit breaker so a dead provider stops
// being hammered across batch runs.
type Executor struct {
	registry *Registry
	order    []model.SourceKind
	timeout  time.Duration
	breakers *resilience.Breakers
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTimeout sets the per-source lookup timeout.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = d }
}

// WithOrder sets the source precedence order.
func WithOrder(order []model.SourceKind) ExecutorOption {
	return func(e *Executor) { e.order = order }
}

// WithBreakers sets the circuit breaker registry shared across runs.
func WithBreakers(b *resilience.Breakers) ExecutorOption {
	return func(e *Executor) { e.breakers = b }
}

// NewExecutor creates an executor over the registered sources.
func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		order:    model.DefaultSourceOrder,
		timeout:  10 * time.Second,
		breakers: resilience.NewBreakers(resilience.DefaultCircuitConfig()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run queries every source concurrently and returns the successful
// records in the fixed precedence order, regardless of completion order.
// Lookup failures are soft: logged and skipped.
func (e *Executor) Run(ctx context.Context, ids model.Identifiers) []model.EnrichmentRecord {
	results := make([]*model.EnrichmentRecord, len(e.order))

	g, gCtx := errgroup.WithContext(ctx)
	for i, kind := range e.order {
		src := e.registry.Get(kind)
		if src == nil {
			continue
		}

		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(gCtx, e.timeout)
			defer cancel()

			start := time.Now()
			rec, err := resilience.ExecuteVal(lookupCtx, e.breakers.Get(string(kind)),
				func(ctx context.Context) (*model.EnrichmentRecord, error) {
					return src.Lookup(ctx, ids)
				})

			log := zap.L().With(
				zap.String("source", string(kind)),
				zap.Duration("elapsed", time.Since(start)),
			)
			switch {
			case err != nil:
				// Soft failure: this source contributes nothing.
				log.Warn("source lookup failed", zap.Error(err))
			case rec == nil:
				log.Debug("source lookup: no match")
			default:
				log.Info("source lookup succeeded", zap.Bool("verified", rec.Verified))
				results[i] = rec
			}
			return nil
		})
	}
	_ = g.Wait()

	records := make([]model.EnrichmentRecord, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}
