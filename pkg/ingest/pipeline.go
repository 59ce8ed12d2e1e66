// Package ingest orchestrates the extraction-to-graph pipeline: inline
// tag parsing, oracle extraction, merge/deduplication, and persistence
// of entities and relationships.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inklore/inklore/pkg/graph"
	"github.com/inklore/inklore/pkg/tags"
	"github.com/inklore/inklore/pkg/types"
)

// Oracle is the extraction dependency of the pipeline.
type Oracle interface {
	Extract(ctx context.Context, text, contextNote string) *types.ExtractionResult
}

// Options adjust a single ingestion run.
type Options struct {
	// StoryTitle associates the content with a story in the context
	// note handed to the oracle.
	StoryTitle string
	// SourcePath stamps provenance onto every created node.
	SourcePath string
	// TestRunID marks all created records for a reversible trial run.
	// Empty means a normal committed ingestion.
	TestRunID string
}

// Pipeline runs the ingestion flow against a graph writer.
type Pipeline struct {
	oracle Oracle
	store  graph.Writer
	logger *slog.Logger
}

// NewPipeline assembles a pipeline.
func NewPipeline(oracle Oracle, store graph.Writer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{oracle: oracle, store: store, logger: logger}
}

// Ingest processes one block of content: parse inline markers, extract
// via the oracle, merge the two entity sources, and persist everything.
// Per-item persistence failures are collected in the report; they never
// abort the batch.
func (p *Pipeline) Ingest(ctx context.Context, text, title string, opts Options) (*types.ExtractionResult, *Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, types.ErrEmptyContent
	}

	inline := tags.Parse(text)

	extracted := p.oracle.Extract(ctx, text, contextNote(title, opts))

	merged := mergeEntities(&extracted.Entities, &inline)
	result := &types.ExtractionResult{
		Entities:      *merged,
		Relationships: extracted.Relationships,
	}

	p.logger.Info("persisting extraction",
		"title", title,
		"entities", result.Entities.Len(),
		"relationships", len(result.Relationships),
		"test_run", opts.TestRunID != "")

	prov := provenance(opts)
	report := &Report{}

	for _, e := range result.Entities.All() {
		err := p.store.UpsertEntity(ctx, e, prov)
		if err != nil {
			p.logger.Error("entity upsert failed", "label", e.Label(), "key", e.Key(), "error", err)
		}
		report.add(ItemEntity, fmt.Sprintf("%s %q", e.Label(), e.Key()), err)
	}

	for _, rel := range result.Relationships {
		err := p.store.CreateRelationship(ctx, rel, prov)
		if err != nil {
			p.logger.Error("relationship creation failed",
				"from", rel.From, "to", rel.To, "type", rel.Type.Name(), "error", err)
		}
		report.add(ItemRelationship,
			fmt.Sprintf("%s-[%s]->%s", rel.From, rel.Type.Name(), rel.To), err)
	}

	return result, report, nil
}

// IngestFile reads a UTF-8 text file and ingests its content, stamping
// the file path as provenance.
func (p *Pipeline) IngestFile(ctx context.Context, path string, opts Options) (*types.ExtractionResult, *Report, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if opts.SourcePath == "" {
		opts.SourcePath = path
	}
	return p.Ingest(ctx, string(content), path, opts)
}

// Sweeper is the cleanup dependency of Reingest.
type Sweeper interface {
	DeleteTestMarked(ctx context.Context, runID string) error
}

// Reingest refreshes previously ingested content without duplicate
// accumulation: a trial pass under a fresh test-run marker, a sweep of
// everything the trial created, then the committed pass. If the trial
// pass fails outright nothing is committed. The extra oracle round
// trip is the price of the two-pass idiom; an extraction cache absorbs
// it for unchanged content.
func (p *Pipeline) Reingest(ctx context.Context, sweeper Sweeper, text, title string, opts Options) (*types.ExtractionResult, *Report, error) {
	trialOpts := opts
	trialOpts.TestRunID = uuid.NewString()

	_, trialReport, err := p.Ingest(ctx, text, title, trialOpts)

	// Sweep regardless: a partially failed trial still left marked
	// records behind.
	if sweepErr := sweeper.DeleteTestMarked(ctx, trialOpts.TestRunID); sweepErr != nil {
		return nil, nil, fmt.Errorf("sweeping trial run %s: %w", trialOpts.TestRunID, sweepErr)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("trial ingestion failed: %w", err)
	}
	if !trialReport.Succeeded() {
		return nil, trialReport, fmt.Errorf("trial ingestion had %d failed items, not committing",
			len(trialReport.Failures()))
	}

	opts.TestRunID = ""
	return p.Ingest(ctx, text, title, opts)
}

// contextNote describes the content source for the oracle prompt.
func contextNote(title string, opts Options) string {
	note := fmt.Sprintf("This is content titled '%s'", title)
	if opts.SourcePath != "" {
		note = fmt.Sprintf("This is content from the file '%s'", opts.SourcePath)
	}
	if opts.StoryTitle != "" {
		note += fmt.Sprintf(" from the story '%s'", opts.StoryTitle)
	}
	return note
}

func provenance(opts Options) *graph.Provenance {
	if opts.SourcePath == "" && opts.TestRunID == "" {
		return nil
	}
	return &graph.Provenance{
		SourceFile: opts.SourcePath,
		TestRunID:  opts.TestRunID,
		MarkedAt:   time.Now(),
	}
}

// mergeEntities folds inline-marker entities into the oracle's buckets,
// deduplicating by case-insensitive natural key. Oracle records carry
// richer attributes and win; inline duplicates are dropped.
func mergeEntities(oracle, inline *types.EntitySet) *types.EntitySet {
	merged := *oracle

	merged.Characters = appendMissing(merged.Characters, inline.Characters)
	merged.Locations = appendMissing(merged.Locations, inline.Locations)
	merged.Scenes = appendMissing(merged.Scenes, inline.Scenes)
	merged.Stories = appendMissing(merged.Stories, inline.Stories)
	merged.Themes = appendMissing(merged.Themes, inline.Themes)
	merged.PlotPoints = appendMissing(merged.PlotPoints, inline.PlotPoints)
	merged.Tags = appendMissing(merged.Tags, inline.Tags)

	return &merged
}

// appendMissing appends candidates whose natural key is not yet
// present, comparing keys case-insensitively. Duplicate candidates
// within the inline batch collapse too.
func appendMissing[T types.Entity](existing, candidates []T) []T {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, e := range existing {
		seen[strings.ToLower(e.Key())] = struct{}{}
	}

	for _, c := range candidates {
		key := strings.ToLower(c.Key())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		existing = append(existing, c)
	}
	return existing
}
