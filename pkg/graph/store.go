// Package graph implements the labeled-property-graph store for the
// writing knowledge graph over the Neo4j bolt driver.
package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/inklore/inklore/pkg/types"
)

// Runner executes an ad-hoc query and returns rows of named fields.
// The query assistant depends on this rather than the full store.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// Writer is the mutation surface the ingestion pipeline needs.
type Writer interface {
	UpsertEntity(ctx context.Context, e types.Entity, prov *Provenance) error
	CreateRelationship(ctx context.Context, rel types.Relationship, prov *Provenance) error
}

// Store executes parametrized queries against a Neo4j-compatible
// database. Sessions are scoped per logical operation and closed on
// all exit paths.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewStore connects to the graph database.
func NewStore(uri, username, password, database string, logger *slog.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		driver:   driver,
		database: database,
		logger:   logger,
	}, nil
}

// VerifyConnectivity checks the database is reachable.
func (s *Store) VerifyConnectivity(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("graph database unreachable: %w", err)
	}
	return nil
}

// Close releases the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// UpsertEntity creates the node for e if absent and overwrites its
// attributes if present, keyed on the entity's natural key.
func (s *Store) UpsertEntity(ctx context.Context, e types.Entity, prov *Provenance) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid %s record: %w", e.Label(), err)
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, upsertQuery(e.Label()), upsertParams(e, prov))
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("upserting %s %q: %w", e.Label(), e.Key(), err)
	}
	return nil
}

// CreateRelationship merges a typed edge between two nodes matched by
// name or title. If either endpoint is missing the statement matches
// zero rows and the call is a no-op.
func (s *Store) CreateRelationship(ctx context.Context, rel types.Relationship, prov *Provenance) error {
	if err := rel.Validate(); err != nil {
		return fmt.Errorf("invalid relationship: %w", err)
	}
	if rel.Type.Quarantined() {
		s.logger.Warn("quarantined relationship type",
			"raw", rel.Type.Raw(), "from", rel.From, "to", rel.To)
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, relationshipQuery(rel.Type), relationshipParams(rel, prov))
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("creating relationship %s-[%s]->%s: %w",
			rel.From, rel.Type.Name(), rel.To, err)
	}
	return nil
}

// Run executes an ad-hoc query and collects the rows.
func (s *Store) Run(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	rows, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}

	var results []map[string]any
	for rows.Next(ctx) {
		results = append(results, rows.Record().AsMap())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collecting query results: %w", err)
	}
	return results, nil
}

// AllCharacters returns every character ordered by name.
func (s *Store) AllCharacters(ctx context.Context) ([]map[string]any, error) {
	return s.Run(ctx, allCharactersQuery, nil)
}

// CharacterScenes returns the scenes a character appears in.
func (s *Store) CharacterScenes(ctx context.Context, name string) ([]map[string]any, error) {
	return s.Run(ctx, characterScenesQuery, map[string]any{"name": name})
}

// CharacterRelationships returns all character-to-character edges for
// a character.
func (s *Store) CharacterRelationships(ctx context.Context, name string) ([]map[string]any, error) {
	return s.Run(ctx, characterRelationshipsQuery, map[string]any{"name": name})
}

// StoryOverview collects a story's details, characters, locations and
// scenes.
type StoryOverview struct {
	Story      map[string]any   `json:"story"`
	Characters []map[string]any `json:"characters"`
	Locations  []map[string]any `json:"locations"`
	Scenes     []map[string]any `json:"scenes"`
}

// GetStoryOverview returns a comprehensive overview of one story.
func (s *Store) GetStoryOverview(ctx context.Context, title string) (*StoryOverview, error) {
	params := map[string]any{"title": title}

	overview := &StoryOverview{}

	details, err := s.Run(ctx, storyDetailsQuery, params)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		overview.Story = details[0]
	}

	if overview.Characters, err = s.Run(ctx, storyCharactersQuery, params); err != nil {
		return nil, err
	}
	if overview.Locations, err = s.Run(ctx, storyLocationsQuery, params); err != nil {
		return nil, err
	}
	if overview.Scenes, err = s.Run(ctx, storyScenesQuery, params); err != nil {
		return nil, err
	}

	return overview, nil
}

// SearchByKeyword searches characters, locations and scenes for a
// keyword in their key and descriptive fields.
func (s *Store) SearchByKeyword(ctx context.Context, keyword string) (map[string][]map[string]any, error) {
	results := make(map[string][]map[string]any, 3)
	params := map[string]any{"keyword": keyword}

	for _, label := range []string{"Character", "Location", "Scene"} {
		rows, err := s.Run(ctx, searchQuery(label), params)
		if err != nil {
			return nil, fmt.Errorf("searching %s nodes: %w", label, err)
		}
		results[label] = rows
	}

	return results, nil
}

// AllTags returns every tag ordered by category then value.
func (s *Store) AllTags(ctx context.Context) ([]map[string]any, error) {
	return s.Run(ctx, allTagsQuery, nil)
}

// TagsByCategory returns the tags in one category.
func (s *Store) TagsByCategory(ctx context.Context, category string) ([]map[string]any, error) {
	return s.Run(ctx, tagsByCategoryQuery, map[string]any{"category": category})
}

// DeleteTestMarked sweeps every node and edge stamped with the given
// test-run marker.
func (s *Store) DeleteTestMarked(ctx context.Context, runID string) error {
	params := map[string]any{"run_id": runID}

	if _, err := s.Run(ctx, deleteTestEdgesQuery, params); err != nil {
		return fmt.Errorf("sweeping test edges: %w", err)
	}
	if _, err := s.Run(ctx, deleteTestNodesQuery, params); err != nil {
		return fmt.Errorf("sweeping test nodes: %w", err)
	}
	return nil
}
