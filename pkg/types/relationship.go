package types

import (
	"regexp"
	"strings"
)

// QuarantinedType is the edge type used when an extracted relationship
// name cannot be sanitized into a safe identifier. The raw value is
// preserved on the edge as a property instead of being interpolated
// into query text.
const QuarantinedType = "RELATED_TO"

// knownRelationshipTypes is the bounded set of edge types the schema
// documents. Extraction output matching one of these (after
// normalization) is treated as first-class.
var knownRelationshipTypes = map[string]struct{}{
	"KNOWS":          {},
	"LIVES_IN":       {},
	"APPEARS_IN":     {},
	"TAKES_PLACE_IN": {},
	"PART_OF":        {},
	"FOLLOWS":        {},
	"EXPLORES":       {},
	"EMBODIES":       {},
	"HAS":            {},
	"BELONGS_TO":     {},
}

var safeEdgeName = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// RelationshipType is a validated edge type. Extraction is free to name
// relationships, but only normalized identifiers reach query text;
// everything else is quarantined under RELATED_TO with the raw string
// kept for inspection.
type RelationshipType struct {
	name  string
	raw   string
	known bool
}

// ParseRelationshipType normalizes and classifies a raw edge-type
// string from extraction output.
func ParseRelationshipType(raw string) RelationshipType {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	if _, ok := knownRelationshipTypes[normalized]; ok {
		return RelationshipType{name: normalized, raw: raw, known: true}
	}
	if safeEdgeName.MatchString(normalized) {
		return RelationshipType{name: normalized, raw: raw}
	}
	return RelationshipType{name: QuarantinedType, raw: raw}
}

// Name returns the edge type safe for query interpolation.
func (t RelationshipType) Name() string {
	if t.name == "" {
		return QuarantinedType
	}
	return t.name
}

// Raw returns the original string produced by extraction.
func (t RelationshipType) Raw() string { return t.raw }

// Known reports whether the type belongs to the documented schema.
func (t RelationshipType) Known() bool { return t.known }

// Quarantined reports whether the raw string was rejected and replaced
// with RELATED_TO.
func (t RelationshipType) Quarantined() bool {
	return t.Name() == QuarantinedType && strings.ToUpper(strings.TrimSpace(t.raw)) != QuarantinedType
}

// Relationship is a directed, typed edge between two entities matched
// by name or title.
type Relationship struct {
	From        string           `json:"from"`
	To          string           `json:"to"`
	Type        RelationshipType `json:"-"`
	Description string           `json:"description,omitempty"`
}

// Validate checks the relationship has both endpoints.
func (r Relationship) Validate() error {
	if strings.TrimSpace(r.From) == "" || strings.TrimSpace(r.To) == "" {
		return ErrEmptyEndpoint
	}
	return nil
}
