// Package inklore organizes creative-writing drafts and builds a
// queryable knowledge graph from them.
//
// Drafts dropped into a content directory are classified by type
// (characters, scenes, locations, stories, and so on), filed into the
// matching subdirectory, and handed to an ingestion pipeline. The
// pipeline combines inline @category:value markers with entities and
// relationships extracted by a language model, then merges everything
// into Neo4j keyed on natural names so repeated ingestion converges
// instead of duplicating.
//
// On top of the graph sits a writing assistant that turns
// natural-language questions ("which characters haven't met yet?")
// into Cypher, runs them, and renders the rows back into prose.
//
// The Client type in this package wires the pieces together from
// configuration; the pkg subdirectories expose the parts individually
// for callers that want finer control.
package inklore
