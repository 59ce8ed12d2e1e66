package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Entity is a typed record destined for a graph node. Label reports the
// node label, Key the natural key used for upsert matching (name or
// title depending on the type), and Properties the attribute map to SET
// on the merged node.
type Entity interface {
	Label() string
	Key() string
	Properties() map[string]any
	Validate() error
}

// Character is a person appearing in the writing.
type Character struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Age         *int     `json:"age,omitempty"`
	Role        string   `json:"role,omitempty"`
	Traits      []string `json:"traits,omitempty"`
}

func (c Character) Label() string { return "Character" }
func (c Character) Key() string   { return c.Name }

func (c Character) Properties() map[string]any {
	props := map[string]any{
		"description": c.Description,
		"role":        c.Role,
		"traits":      c.Traits,
	}
	if c.Age != nil {
		props["age"] = *c.Age
	}
	return props
}

func (c Character) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Location is a place, setting, building or room.
type Location struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

func (l Location) Label() string { return "Location" }
func (l Location) Key() string   { return l.Name }

func (l Location) Properties() map[string]any {
	return map[string]any{
		"type":        l.Type,
		"description": l.Description,
	}
}

func (l Location) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Scene is a unit of narrative keyed by title.
type Scene struct {
	Title     string `json:"title"`
	Summary   string `json:"summary,omitempty"`
	Setting   string `json:"setting,omitempty"`
	Mood      string `json:"mood,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
	Status    string `json:"status,omitempty"`
}

func (s Scene) Label() string { return "Scene" }
func (s Scene) Key() string   { return s.Title }

func (s Scene) Properties() map[string]any {
	return map[string]any{
		"summary":    s.Summary,
		"setting":    s.Setting,
		"mood":       s.Mood,
		"word_count": s.WordCount,
		"status":     s.Status,
	}
}

func (s Scene) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Story is a top-level work keyed by title.
type Story struct {
	Title   string `json:"title"`
	Genre   string `json:"genre,omitempty"`
	Status  string `json:"status,omitempty"`
	Summary string `json:"summary,omitempty"`
}

func (s Story) Label() string { return "Story" }
func (s Story) Key() string   { return s.Title }

func (s Story) Properties() map[string]any {
	return map[string]any{
		"genre":   s.Genre,
		"status":  s.Status,
		"summary": s.Summary,
	}
}

func (s Story) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Theme is an abstract concept or motif explored by the writing.
type Theme struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (t Theme) Label() string { return "Theme" }
func (t Theme) Key() string   { return t.Name }

func (t Theme) Properties() map[string]any {
	return map[string]any{"description": t.Description}
}

func (t Theme) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// PlotPoint is a key event, conflict or story development.
type PlotPoint struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Importance  string `json:"importance,omitempty"`
	Type        string `json:"type,omitempty"`
}

func (p PlotPoint) Label() string { return "PlotPoint" }
func (p PlotPoint) Key() string   { return p.Title }

func (p PlotPoint) Properties() map[string]any {
	return map[string]any{
		"description": p.Description,
		"importance":  p.Importance,
		"type":        p.Type,
	}
}

func (p PlotPoint) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Tag is a custom @category:value marker promoted to a node. Name is
// derived as "Category: Value" when not supplied.
type Tag struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// DisplayName derives the canonical tag name from category and value.
func (t Tag) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("%s: %s", titleCase(t.Category), titleCase(t.Value))
}

func (t Tag) Label() string { return "Tag" }
func (t Tag) Key() string   { return t.DisplayName() }

func (t Tag) Properties() map[string]any {
	return map[string]any{
		"category":    t.Category,
		"value":       t.Value,
		"description": t.Description,
	}
}

func (t Tag) Validate() error {
	if strings.TrimSpace(t.DisplayName()) == "" {
		return ErrEmptyName
	}
	return nil
}

// titleCase uppercases the first letter of each underscore- or
// space-separated word, matching how the original markers were
// displayed ("power" -> "Power").
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// EntitySet partitions extracted entities by type, mirroring the
// buckets of the extraction payload.
type EntitySet struct {
	Characters []Character `json:"characters,omitempty"`
	Locations  []Location  `json:"locations,omitempty"`
	Scenes     []Scene     `json:"scenes,omitempty"`
	Stories    []Story     `json:"stories,omitempty"`
	Themes     []Theme     `json:"themes,omitempty"`
	PlotPoints []PlotPoint `json:"plot_points,omitempty"`
	Tags       []Tag       `json:"tags,omitempty"`
}

// All flattens the set into a single slice, preserving bucket order.
func (s *EntitySet) All() []Entity {
	out := make([]Entity, 0, s.Len())
	for _, c := range s.Characters {
		out = append(out, c)
	}
	for _, l := range s.Locations {
		out = append(out, l)
	}
	for _, sc := range s.Scenes {
		out = append(out, sc)
	}
	for _, st := range s.Stories {
		out = append(out, st)
	}
	for _, t := range s.Themes {
		out = append(out, t)
	}
	for _, p := range s.PlotPoints {
		out = append(out, p)
	}
	for _, t := range s.Tags {
		out = append(out, t)
	}
	return out
}

// Len reports the total number of entities across all buckets.
func (s *EntitySet) Len() int {
	return len(s.Characters) + len(s.Locations) + len(s.Scenes) +
		len(s.Stories) + len(s.Themes) + len(s.PlotPoints) + len(s.Tags)
}

// ExtractionResult is the structured payload produced by the
// extraction step: per-type entity buckets plus relationship records.
type ExtractionResult struct {
	Entities      EntitySet      `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// EmptyExtractionResult is the soft-failure substitute returned when
// the oracle's output cannot be parsed.
func EmptyExtractionResult() *ExtractionResult {
	return &ExtractionResult{Relationships: []Relationship{}}
}

// rawExtraction matches the oracle's wire shape before coercion. Age
// arrives as a JSON number (float64) and must be coerced; records come
// as loose maps that may be missing their natural key.
type rawExtraction struct {
	Entities struct {
		Characters []json.RawMessage `json:"characters"`
		Locations  []json.RawMessage `json:"locations"`
		Scenes     []json.RawMessage `json:"scenes"`
		Stories    []json.RawMessage `json:"stories"`
		Themes     []json.RawMessage `json:"themes"`
		PlotPoints []json.RawMessage `json:"plot_points"`
		Tags       []json.RawMessage `json:"tags"`
	} `json:"entities"`
	Relationships []rawRelationship `json:"relationships"`
}

type rawRelationship struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// DecodeExtraction coerces an oracle JSON payload into typed records,
// dropping any record that is missing its natural key or otherwise
// fails validation. Dropped counts are reported so the caller can log
// them; a malformed payload is an error, individually bad records are
// not.
func DecodeExtraction(data []byte) (*ExtractionResult, int, error) {
	var raw rawExtraction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decoding extraction payload: %w", err)
	}

	result := EmptyExtractionResult()
	dropped := 0

	decodeEach(raw.Entities.Characters, &dropped, func(c Character) {
		result.Entities.Characters = append(result.Entities.Characters, c)
	})
	decodeEach(raw.Entities.Locations, &dropped, func(l Location) {
		result.Entities.Locations = append(result.Entities.Locations, l)
	})
	decodeEach(raw.Entities.Scenes, &dropped, func(s Scene) {
		result.Entities.Scenes = append(result.Entities.Scenes, s)
	})
	decodeEach(raw.Entities.Stories, &dropped, func(s Story) {
		result.Entities.Stories = append(result.Entities.Stories, s)
	})
	decodeEach(raw.Entities.Themes, &dropped, func(t Theme) {
		result.Entities.Themes = append(result.Entities.Themes, t)
	})
	decodeEach(raw.Entities.PlotPoints, &dropped, func(p PlotPoint) {
		result.Entities.PlotPoints = append(result.Entities.PlotPoints, p)
	})
	decodeEach(raw.Entities.Tags, &dropped, func(t Tag) {
		t.Name = t.DisplayName()
		result.Entities.Tags = append(result.Entities.Tags, t)
	})

	for _, rr := range raw.Relationships {
		rel := Relationship{
			From:        rr.From,
			To:          rr.To,
			Type:        ParseRelationshipType(rr.Type),
			Description: rr.Description,
		}
		if err := rel.Validate(); err != nil {
			dropped++
			continue
		}
		result.Relationships = append(result.Relationships, rel)
	}

	return result, dropped, nil
}

// decodeEach unmarshals each raw record into T, discarding records
// that do not decode or do not validate.
func decodeEach[T Entity](raws []json.RawMessage, dropped *int, keep func(T)) {
	for _, r := range raws {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			// Age sometimes arrives as a fractional number; retry with
			// a loose map before giving up on the record.
			coerced, ok := coerceLoose[T](r)
			if !ok {
				*dropped++
				continue
			}
			v = coerced
		}
		if err := v.Validate(); err != nil {
			*dropped++
			continue
		}
		keep(v)
	}
}

// coerceLoose re-decodes a record through map[string]any, rounding
// numeric fields that failed strict decoding (e.g. "age": 29.0).
func coerceLoose[T Entity](r json.RawMessage) (T, bool) {
	var zero T
	var m map[string]any
	if err := json.Unmarshal(r, &m); err != nil {
		return zero, false
	}
	if f, ok := m["age"].(float64); ok {
		m["age"] = int(math.Round(f))
	}
	normalized, err := json.Marshal(m)
	if err != nil {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(normalized, &v); err != nil {
		return zero, false
	}
	return v, true
}
