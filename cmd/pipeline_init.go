package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rolocard/enrich-cli/internal/dedupe"
	"github.com/rolocard/enrich-cli/internal/enrich"
	"github.com/rolocard/enrich-cli/internal/extract"
	"github.com/rolocard/enrich-cli/internal/pipeline"
	"github.com/rolocard/enrich-cli/internal/resolver"
	"github.com/rolocard/enrich-cli/internal/store"
	anthropicpkg "github.com/rolocard/enrich-cli/pkg/anthropic"
	"github.com/rolocard/enrich-cli/pkg/devto"
	"github.com/rolocard/enrich-cli/pkg/gemini"
	"github.com/rolocard/enrich-cli/pkg/github"
	"github.com/rolocard/enrich-cli/pkg/gitlab"
	"github.com/rolocard/enrich-cli/pkg/orcid"
	"github.com/rolocard/enrich-cli/pkg/stackoverflow"
	"github.com/rolocard/enrich-cli/pkg/wikidata"
)

// pipelineEnv holds the initialized store, clients, and pipeline needed
// by the run/import/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, all API clients, the source registry,
// and the pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	geminiClient := gemini.NewClient(cfg.Gemini.Key,
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
		gemini.WithModel(cfg.Gemini.Model),
		gemini.WithEmbeddingModel(cfg.Gemini.EmbeddingModel),
	)
	githubClient := github.NewClient(cfg.GitHub.Token, github.WithBaseURL(cfg.GitHub.BaseURL))
	gitlabClient := gitlab.NewClient(cfg.GitLab.Token, gitlab.WithBaseURL(cfg.GitLab.BaseURL))
	orcidClient := orcid.NewClient()
	soClient := stackoverflow.NewClient(cfg.StackExchange.Key, stackoverflow.WithBaseURL(cfg.StackExchange.BaseURL))
	wikidataClient := wikidata.NewClient()
	devtoClient := devto.NewClient()

	registry := enrich.NewRegistry()
	registry.Register(enrich.NewGitHubSource(githubClient))
	registry.Register(enrich.NewOrcidSource(orcidClient))
	registry.Register(enrich.NewStackOverflowSource(soClient))
	registry.Register(enrich.NewWikidataSource(wikidataClient))
	registry.Register(enrich.NewGitLabSource(gitlabClient))
	registry.Register(enrich.NewDevToSource(devtoClient))

	sourcesFile, err := enrich.LoadSourcesFile(cfg.Enrich.SourcesFile)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	executor := enrich.NewExecutor(registry,
		enrich.WithOrder(sourcesFile.ResolveOrder()),
		enrich.WithTimeout(time.Duration(cfg.Enrich.SourceTimeoutSecs)*time.Second),
	)

	var fallback extract.Extractor
	if cfg.Anthropic.Key != "" {
		anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key, anthropicpkg.WithModel(cfg.Anthropic.Model))
		fallback = extract.NewAnthropicExtractor(anthropicClient)
	}

	p := pipeline.New(
		cfg,
		st,
		extract.NewGeminiExtractor(geminiClient),
		fallback,
		resolver.New(githubClient, orcidClient),
		executor,
		dedupe.NewEngine(geminiClient),
	)

	return &pipelineEnv{Store: st, Pipeline: p}, nil
}
