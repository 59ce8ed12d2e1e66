package graph

import (
	"fmt"
	"time"

	"github.com/inklore/inklore/pkg/types"
)

// Provenance carries optional traceability fields stamped onto records
// a pipeline run creates. A non-empty TestRunID marks the record as
// part of a reversible trial ingestion.
type Provenance struct {
	SourceFile string
	TestRunID  string
	MarkedAt   time.Time
}

// keyProperty maps a node label to the property holding its natural
// key.
func keyProperty(label string) string {
	switch label {
	case "Scene", "Story", "PlotPoint":
		return "title"
	default:
		return "name"
	}
}

// upsertQuery builds the MERGE statement for an entity label. The key
// is matched, all other attributes are overwritten.
func upsertQuery(label string) string {
	return fmt.Sprintf("MERGE (n:%s {%s: $key})\nSET n += $props", label, keyProperty(label))
}

// upsertParams assembles the parameter map for an entity upsert,
// folding in provenance fields when present.
func upsertParams(e types.Entity, prov *Provenance) map[string]any {
	props := e.Properties()
	if prov != nil {
		if prov.SourceFile != "" {
			props["source_file"] = prov.SourceFile
		}
		if prov.TestRunID != "" {
			props["test_run_id"] = prov.TestRunID
			props["test_marked"] = true
			props["test_created_at"] = prov.MarkedAt.UTC().Format(time.RFC3339)
		}
	}
	return map[string]any{
		"key":   e.Key(),
		"props": props,
	}
}

// relationshipQuery builds the edge MERGE for a validated relationship
// type. Endpoints are matched by name or title; zero matches means the
// statement is a no-op. Only the validated type name is interpolated;
// everything else travels as a parameter.
func relationshipQuery(relType types.RelationshipType) string {
	return fmt.Sprintf(`MATCH (a), (b)
WHERE (a.name = $from OR a.title = $from)
  AND (b.name = $to OR b.title = $to)
MERGE (a)-[r:%s]->(b)
SET r += $props`, relType.Name())
}

// relationshipParams assembles the parameter map for edge creation. A
// quarantined type keeps its raw name on the edge for inspection.
func relationshipParams(rel types.Relationship, prov *Provenance) map[string]any {
	props := map[string]any{"description": rel.Description}
	if rel.Type.Quarantined() {
		props["raw_type"] = rel.Type.Raw()
	}
	if prov != nil && prov.TestRunID != "" {
		props["test_run_id"] = prov.TestRunID
	}
	return map[string]any{
		"from":  rel.From,
		"to":    rel.To,
		"props": props,
	}
}

// Typed lookup statements, kept together so the read surface of the
// store is visible at a glance.
const (
	allCharactersQuery = `MATCH (c:Character)
RETURN c.name as name, c.age as age, c.role as role, c.description as description
ORDER BY c.name`

	characterScenesQuery = `MATCH (c:Character {name: $name})-[:APPEARS_IN]->(s:Scene)
RETURN s.title as scene_title, s.summary as summary, s.word_count as word_count
ORDER BY s.title`

	characterRelationshipsQuery = `MATCH (c1:Character {name: $name})-[r]-(c2:Character)
RETURN c2.name as related_character, type(r) as relationship_type
ORDER BY c2.name`

	storyDetailsQuery = `MATCH (s:Story {title: $title})
RETURN s.title as title, s.genre as genre, s.status as status, s.summary as summary`

	storyCharactersQuery = `MATCH (c:Character)-[:APPEARS_IN]->(scene:Scene)-[:PART_OF]->(s:Story {title: $title})
RETURN DISTINCT c.name as name, c.role as role
ORDER BY c.name`

	storyLocationsQuery = `MATCH (l:Location)<-[:TAKES_PLACE_IN]-(scene:Scene)-[:PART_OF]->(s:Story {title: $title})
RETURN DISTINCT l.name as name, l.type as type
ORDER BY l.name`

	storyScenesQuery = `MATCH (scene:Scene)-[:PART_OF]->(s:Story {title: $title})
RETURN scene.title as title, scene.summary as summary, scene.word_count as word_count, scene.status as status
ORDER BY scene.title`

	allTagsQuery = `MATCH (t:Tag)
RETURN t.name as name, t.category as category, t.value as value, t.description as description
ORDER BY t.category, t.value`

	tagsByCategoryQuery = `MATCH (t:Tag)
WHERE toLower(t.category) = toLower($category)
RETURN t.name as name, t.category as category, t.value as value, t.description as description
ORDER BY t.value`

	deleteTestNodesQuery = `MATCH (n)
WHERE n.test_run_id = $run_id
DETACH DELETE n`

	deleteTestEdgesQuery = `MATCH ()-[r]-()
WHERE r.test_run_id = $run_id
DELETE r`
)

// searchQuery builds the keyword search for one label; the key and
// description fields differ per label.
func searchQuery(label string) string {
	key := keyProperty(label)
	desc := "description"
	if label == "Scene" {
		desc = "summary"
	}
	return fmt.Sprintf(`MATCH (n:%[1]s)
WHERE toLower(n.%[2]s) CONTAINS toLower($keyword)
   OR toLower(n.%[3]s) CONTAINS toLower($keyword)
RETURN n.%[2]s as name, n.%[3]s as description, '%[1]s' as type`, label, key, desc)
}
