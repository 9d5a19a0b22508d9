package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/targeting-cli/internal/competitor"
	"github.com/sells-group/targeting-cli/internal/extract"
	"github.com/sells-group/targeting-cli/internal/pipeline"
	"github.com/sells-group/targeting-cli/internal/reasoning"
	"github.com/sells-group/targeting-cli/internal/scrape"
	"github.com/sells-group/targeting-cli/internal/store"
	"github.com/sells-group/targeting-cli/internal/targeting"
	"github.com/sells-group/targeting-cli/pkg/anthropic"
	"github.com/sells-group/targeting-cli/pkg/firecrawl"
	"github.com/sells-group/targeting-cli/pkg/jina"
)

// Env bundles the wired application services for a command invocation.
type Env struct {
	Store     store.Store
	Pipeline  *pipeline.Pipeline
	Generator *targeting.Generator
}

// Close releases held resources.
func (e *Env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initEnv builds the full service graph from config: store (migrated),
// scraper chain, extractor, reasoning engine, targeting generator,
// competitor analyzer, and the session pipeline.
func initEnv(ctx context.Context) (*Env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	// The scraper chain tries the cheapest source first. Jina and Firecrawl
	// join only when configured; the local fetcher always participates.
	scrapers := []scrape.Scraper{
		scrape.NewLocalScraper(
			scrape.WithRateLimit(cfg.Scrape.RatePerSecond, cfg.Scrape.RateBurst),
			scrape.WithMaxBodyBytes(cfg.Scrape.MaxBodyBytes),
			scrape.WithTimeout(time.Duration(cfg.Scrape.TimeoutSecs)*time.Second),
		),
	}
	if cfg.Jina.Key != "" {
		scrapers = append(scrapers, scrape.NewJinaAdapter(
			jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL)),
		))
	}

	var fcClient firecrawl.Client
	if cfg.Firecrawl.Key != "" {
		fcClient = firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		scrapers = append(scrapers, scrape.NewFirecrawlAdapter(fcClient))
	}

	chain := scrape.NewChain(scrapers...)
	if fcClient != nil {
		chain = chain.WithFirecrawlClient(fcClient)
	}

	extractor := extract.NewChainExtractor(chain, time.Duration(cfg.Scrape.TimeoutSecs)*time.Second)

	var aiClient anthropic.Client
	if cfg.Anthropic.Key != "" {
		aiClient = anthropic.NewClient(cfg.Anthropic.Key)
	}
	engine := reasoning.NewEngine(aiClient, cfg.Anthropic)

	generator := targeting.NewGenerator(st, engine, cfg.Targeting)
	competitors := competitor.NewAnalyzer(extractor, st, cfg.Scrape.CompetitorJobs)

	return &Env{
		Store:     st,
		Pipeline:  pipeline.New(st, extractor, engine, generator, competitors),
		Generator: generator,
	}, nil
}

// initStore opens the configured backend and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error

	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
