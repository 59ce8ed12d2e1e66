package inklore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inklore/inklore/pkg/assistant"
	"github.com/inklore/inklore/pkg/config"
	"github.com/inklore/inklore/pkg/extract"
	"github.com/inklore/inklore/pkg/graph"
	"github.com/inklore/inklore/pkg/ingest"
	"github.com/inklore/inklore/pkg/logger"
	"github.com/inklore/inklore/pkg/nlp"
	"github.com/inklore/inklore/pkg/organize"
	"github.com/inklore/inklore/pkg/telemetry"
)

// Client bundles the store, oracle, pipeline, organizer, and assistant
// behind one handle. Most callers should use this rather than wiring
// the packages by hand.
type Client struct {
	config    *config.Config
	logger    *slog.Logger
	store     *graph.Store
	oracle    nlp.Client
	cache     *extract.Cache
	recorder  *telemetry.Recorder
	extractor *extract.Extractor
	pipeline  *ingest.Pipeline
	organizer *organize.Organizer
	assistant *assistant.Assistant
}

// New builds a Client from configuration. The graph connection is
// verified eagerly so misconfiguration fails here rather than on the
// first write.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)

	store, err := graph.NewStore(cfg.Database.URI, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connecting to graph database: %w", err)
	}
	if err := store.VerifyConnectivity(ctx); err != nil {
		store.Close(ctx)
		return nil, fmt.Errorf("graph database unreachable at %s: %w", cfg.Database.URI, err)
	}

	c := &Client{config: cfg, logger: log, store: store}

	if err := c.buildOracle(); err != nil {
		store.Close(ctx)
		return nil, err
	}

	if cfg.Cache.Enabled {
		cache, err := extract.OpenCache(cfg.Cache.Path, log)
		if err != nil {
			log.Warn("extraction cache unavailable, proceeding without it", "path", cfg.Cache.Path, "error", err)
		} else {
			c.cache = cache
		}
	}

	c.extractor = extract.NewExtractor(c.oracle, c.cache, log)
	c.pipeline = ingest.NewPipeline(c.extractor, store, log)
	c.organizer = organize.NewOrganizer(cfg.Content.BaseDir, c.pipeline, log)
	c.assistant = assistant.New(c.oracle, store, log)

	return c, nil
}

// buildOracle assembles the oracle client stack: base client, retry,
// circuit breaker, and optionally the telemetry recorder.
func (c *Client) buildOracle() error {
	cfg := c.config

	temperature := cfg.Oracle.Temperature
	maxTokens := cfg.Oracle.MaxTokens
	base, err := nlp.NewOpenAIClient(cfg.Oracle.APIKey, nlp.Config{
		Model:       cfg.Oracle.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		BaseURL:     cfg.Oracle.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("creating oracle client: %w", err)
	}

	var oracle nlp.Client = base

	retryCfg := nlp.DefaultRetryConfig()
	retryCfg.MaxRetries = cfg.Oracle.MaxRetries
	oracle = nlp.NewRetryClient(oracle, retryCfg)

	if cfg.CircuitBreaker.Enabled {
		oracle = nlp.NewCircuitBreakerClient(oracle, cfg.CircuitBreaker, c.logger)
	}

	if cfg.Telemetry.Enabled {
		recorder, err := telemetry.NewRecorder(cfg.Telemetry.ParquetPath, c.logger)
		if err != nil {
			c.logger.Warn("telemetry unavailable, proceeding without it", "path", cfg.Telemetry.ParquetPath, "error", err)
		} else {
			c.recorder = recorder
			oracle = telemetry.NewRecordingClient(oracle, recorder, cfg.Oracle.Model, "oracle")
		}
	}

	c.oracle = oracle
	return nil
}

// Organizer exposes the draft organizer.
func (c *Client) Organizer() *organize.Organizer { return c.organizer }

// Pipeline exposes the ingestion pipeline.
func (c *Client) Pipeline() *ingest.Pipeline { return c.pipeline }

// Store exposes the graph store for typed lookups.
func (c *Client) Store() *graph.Store { return c.store }

// OrganizeAll processes every draft: classify, relocate, ingest.
func (c *Client) OrganizeAll(ctx context.Context, storyTitle string) ([]organize.Result, error) {
	return c.organizer.ProcessAll(ctx, storyTitle)
}

// OrganizeDraft processes a single draft file.
func (c *Client) OrganizeDraft(ctx context.Context, path, storyTitle string) organize.Result {
	return c.organizer.ProcessDraft(ctx, path, storyTitle)
}

// IngestText extracts knowledge from raw text and merges it into the
// graph under the given title.
func (c *Client) IngestText(ctx context.Context, text, title, storyTitle string) (*ingest.Report, error) {
	_, report, err := c.pipeline.Ingest(ctx, text, title, ingest.Options{StoryTitle: storyTitle})
	return report, err
}

// Ask answers a natural-language question about the graph.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	return c.assistant.Ask(ctx, question)
}

// StoryInsights summarizes what the graph knows about a story, or all
// writing when storyTitle is empty.
func (c *Client) StoryInsights(ctx context.Context, storyTitle string) (string, error) {
	return c.assistant.StoryInsights(ctx, storyTitle)
}

// Cleanup removes graph data marked with the given trial-run ID.
func (c *Client) Cleanup(ctx context.Context, runID string) error {
	return c.store.DeleteTestMarked(ctx, runID)
}

// Close releases the graph connection, cache, recorder, and oracle.
func (c *Client) Close(ctx context.Context) error {
	var firstErr error
	if c.oracle != nil {
		if err := c.oracle.Close(); err != nil {
			firstErr = err
		}
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.recorder != nil {
		if err := c.recorder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.store != nil {
		if err := c.store.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
