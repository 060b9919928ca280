// Package pipeline orchestrates one enrichment run: extract, enrich,
// deduplicate, score, persist.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rolocard/enrich-cli/internal/config"
	"github.com/rolocard/enrich-cli/internal/dedupe"
	"github.com/rolocard/enrich-cli/internal/extract"
	"github.com/rolocard/enrich-cli/internal/merge"
	"github.com/rolocard/enrich-cli/internal/model"
	"github.com/rolocard/enrich-cli/internal/score"
	"github.com/rolocard/enrich-cli/internal/store"
)

// Resolver maps a raw profile to per-source identifiers.
type Resolver interface {
	Resolve(ctx context.Context, raw model.RawProfile) model.Identifiers
}

// Enricher fans a lookup out across the configured sources.
type Enricher interface {
	Run(ctx context.Context, ids model.Identifiers) []model.EnrichmentRecord
}

// Deduper checks a candidate profile against existing contacts.
type Deduper interface {
	Check(ctx context.Context, candidate model.EnrichedProfile, existing []model.Contact) dedupe.Result
}

// Pipeline runs documents through the enrichment stages.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	extractor extract.Extractor
	fallback  extract.Extractor
	resolver  Resolver
	enricher  Enricher
	deduper   Deduper
}

// New creates a Pipeline with all dependencies. fallback may be nil;
// when set it is tried for text documents after the primary extractor
// fails for a reason other than an empty extraction.
func New(
	cfg *config.Config,
	st store.Store,
	extractor extract.Extractor,
	fallback extract.Extractor,
	resolver Resolver,
	enricher Enricher,
	deduper Deduper,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		extractor: extractor,
		fallback:  fallback,
		resolver:  resolver,
		enricher:  enricher,
		deduper:   deduper,
	}
}

// Run executes the full pipeline for one document. The returned error
// reflects the run's fate; the run row carries the same outcome, so a
// crashed caller can be reconstructed from the store alone.
func (p *Pipeline) Run(ctx context.Context, ownerUserID string, doc model.Document) (*model.RunOutcome, error) {
	run, err := p.store.CreateRun(ctx, ownerUserID, doc.Name)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	return p.RunExisting(ctx, run, ownerUserID, doc)
}

// RunExisting executes the pipeline against an already-created run row.
// The HTTP server uses this to hand the caller a pollable run id before
// the work starts.
func (p *Pipeline) RunExisting(ctx context.Context, run *model.Run, ownerUserID string, doc model.Document) (*model.RunOutcome, error) {
	log := zap.L().With(
		zap.String("owner", ownerUserID),
		zap.String("document", doc.Name),
		zap.String("run_id", run.ID),
	)
	log.Info("pipeline: starting run")
	started := time.Now()

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}
	fail := func(stage string, cause error) (*model.RunOutcome, error) {
		wrapped := eris.Wrapf(cause, "pipeline: %s", stage)
		if failErr := p.store.FailRun(ctx, run.ID, wrapped.Error()); failErr != nil {
			log.Warn("pipeline: failed to mark run failed", zap.Error(failErr))
		}
		log.Error("pipeline: run failed", zap.String("stage", stage), zap.Error(cause))
		return nil, wrapped
	}

	// Extract.
	setStatus(model.RunStatusExtracting)
	key, err := p.extractionKey(ctx, ownerUserID)
	if err != nil {
		return fail("credentials", err)
	}
	raw, err := p.runExtract(ctx, doc, key, log)
	if err != nil {
		return fail("extract", err)
	}

	// Enrich. Source failures are soft; an empty record set still
	// produces a document-only contact.
	setStatus(model.RunStatusEnriching)
	ids := p.resolver.Resolve(ctx, *raw)
	records := p.enricher.Run(ctx, ids)
	log.Info("pipeline: enrichment complete", zap.Int("sources", len(records)))

	profile := merge.Merge(*raw, records)
	profile.Sources = buildSources(doc, records)

	// Deduplicate.
	setStatus(model.RunStatusDeduplicating)
	existing, err := p.store.ListContacts(ctx, ownerUserID)
	if err != nil {
		return fail("list contacts", err)
	}
	dup := p.deduper.Check(ctx, profile, existing)

	if dup.IsDuplicate {
		contact, err := p.store.GetContact(ctx, ownerUserID, dup.MatchedID)
		if err != nil {
			return fail("get matched contact", err)
		}
		dedupe.MergeContacts(contact, profile)
		if err := p.store.UpdateContact(ctx, contact); err != nil {
			return fail("update contact", err)
		}
		if err := p.store.CompleteRun(ctx, run.ID, contact.ID, true); err != nil {
			return fail("complete run", err)
		}
		log.Info("pipeline: merged into existing contact",
			zap.String("contact_id", contact.ID),
			zap.Float64("similarity", dup.Confidence),
		)
		return &model.RunOutcome{
			RunID:     run.ID,
			ContactID: contact.ID,
			Merged:    true,
			Profile:   contact.EnrichedData,
			Sources:   len(contact.EnrichedData.Sources),
			Duration:  time.Since(started).Milliseconds(),
		}, nil
	}

	// Score and persist a new contact.
	setStatus(model.RunStatusScoring)
	profile.ConfidenceScore = score.Score(profile.Sources, profile)

	contact := &model.Contact{
		OwnerUserID:     ownerUserID,
		Name:            profile.Name,
		Email:           profile.Email,
		Phone:           profile.Phone,
		Company:         profile.Company,
		Title:           profile.Title,
		Location:        profile.Location,
		ExtractedData:   *raw,
		EnrichedData:    profile,
		ConfidenceScore: profile.ConfidenceScore,
	}
	if err := p.store.CreateContact(ctx, contact); err != nil {
		return fail("create contact", err)
	}
	if err := p.store.CompleteRun(ctx, run.ID, contact.ID, false); err != nil {
		return fail("complete run", err)
	}

	log.Info("pipeline: run completed",
		zap.String("contact_id", contact.ID),
		zap.Float64("confidence", profile.ConfidenceScore),
		zap.Duration("elapsed", time.Since(started)),
	)
	return &model.RunOutcome{
		RunID:     run.ID,
		ContactID: contact.ID,
		Profile:   profile,
		Sources:   len(profile.Sources),
		Duration:  time.Since(started).Milliseconds(),
	}, nil
}

// extractionKey resolves the credential the extraction stage will use.
// A config-level key serves every owner and returns empty (the extractor
// is already bound to it); otherwise the owner's stored gemini key is
// required, and its absence fails the run before any network call.
func (p *Pipeline) extractionKey(ctx context.Context, ownerUserID string) (string, error) {
	if p.cfg.Gemini.Key != "" || p.cfg.Anthropic.Key != "" {
		return "", nil
	}
	secret, err := p.store.GetCredential(ctx, ownerUserID, "gemini", "api_key")
	if err != nil {
		return "", eris.Wrap(err, "no extraction api key configured")
	}
	return secret, nil
}

// runExtract runs the primary extractor and, for text documents, falls
// back to the secondary when the primary fails for a transient reason.
// An empty extraction is a hard failure and is never retried: the
// document simply has nothing to offer. A non-empty key rebinds the
// extractor to the owner's stored credential for this run.
func (p *Pipeline) runExtract(ctx context.Context, doc model.Document, key string, log *zap.Logger) (*model.RawProfile, error) {
	extractor := p.extractor
	if key != "" {
		if keyed, ok := extractor.(extract.KeyedExtractor); ok {
			extractor = keyed.WithKey(key)
		}
	}

	raw, err := extractor.Extract(ctx, doc)
	if err == nil {
		return raw, nil
	}
	if eris.Is(err, extract.ErrEmptyExtraction) || p.fallback == nil || !isTextDocument(doc.MimeType) {
		return nil, err
	}

	log.Warn("pipeline: primary extractor failed, trying fallback", zap.Error(err))
	raw, fbErr := p.fallback.Extract(ctx, doc)
	if fbErr != nil {
		return nil, eris.Wrap(fbErr, "fallback extractor")
	}
	return raw, nil
}

// buildSources assembles the provenance list: the document itself
// first, then each contributing source in precedence order.
func buildSources(doc model.Document, records []model.EnrichmentRecord) []model.SourceRef {
	sources := make([]model.SourceRef, 0, len(records)+1)
	sources = append(sources, model.SourceRef{Source: model.SourceDocument, URL: doc.Name})
	for _, rec := range records {
		sources = append(sources, model.SourceRef{Source: rec.Source, URL: rec.URL, Verified: rec.Verified})
	}
	return sources
}

func isTextDocument(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/") || mimeType == "application/json"
}
