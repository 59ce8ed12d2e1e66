package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityNaturalKeys(t *testing.T) {
	tests := []struct {
		entity Entity
		label  string
		key    string
	}{
		{Character{Name: "Alice Chen"}, "Character", "Alice Chen"},
		{Location{Name: "Binary Cafe"}, "Location", "Binary Cafe"},
		{Scene{Title: "The Discovery"}, "Scene", "The Discovery"},
		{Story{Title: "The Algorithm Conspiracy"}, "Story", "The Algorithm Conspiracy"},
		{Theme{Name: "surveillance"}, "Theme", "surveillance"},
		{PlotPoint{Title: "The Leak"}, "PlotPoint", "The Leak"},
		{Tag{Category: "power", Value: "hardening"}, "Tag", "Power: Hardening"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.label, tt.entity.Label())
			assert.Equal(t, tt.key, tt.entity.Key())
			assert.NoError(t, tt.entity.Validate())
		})
	}
}

func TestEntityValidateRejectsMissingKey(t *testing.T) {
	assert.ErrorIs(t, Character{}.Validate(), ErrEmptyName)
	assert.ErrorIs(t, Character{Name: "  "}.Validate(), ErrEmptyName)
	assert.ErrorIs(t, Scene{Summary: "untitled"}.Validate(), ErrEmptyTitle)
	assert.ErrorIs(t, Story{}.Validate(), ErrEmptyTitle)
	assert.ErrorIs(t, PlotPoint{}.Validate(), ErrEmptyTitle)
	assert.ErrorIs(t, Tag{}.Validate(), ErrEmptyName)
}

func TestTagDisplayName(t *testing.T) {
	assert.Equal(t, "Power: Hardening", Tag{Category: "power", Value: "hardening"}.DisplayName())
	assert.Equal(t, "Magic: Blue Fire", Tag{Category: "magic", Value: "blue_fire"}.DisplayName())
	// An explicit name wins over derivation.
	assert.Equal(t, "Custom", Tag{Name: "Custom", Category: "x", Value: "y"}.DisplayName())
}

func TestCharacterPropertiesOmitNilAge(t *testing.T) {
	props := Character{Name: "Soren"}.Properties()
	assert.NotContains(t, props, "age")

	age := 17
	props = Character{Name: "Soren", Age: &age}.Properties()
	assert.Equal(t, 17, props["age"])
}

func TestDecodeExtraction(t *testing.T) {
	payload := []byte(`{
		"entities": {
			"characters": [
				{"name": "Alice Chen", "age": 29, "role": "protagonist", "traits": ["curious"]},
				{"description": "nameless extra"}
			],
			"locations": [{"name": "TechCorp", "type": "office"}],
			"plot_points": [{"title": "The Leak", "importance": "major"}]
		},
		"relationships": [
			{"from": "Alice Chen", "to": "TechCorp", "type": "WORKS_AT"},
			{"from": "", "to": "TechCorp", "type": "KNOWS"}
		]
	}`)

	result, dropped, err := DecodeExtraction(payload)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)

	require.Len(t, result.Entities.Characters, 1)
	assert.Equal(t, "Alice Chen", result.Entities.Characters[0].Name)
	require.NotNil(t, result.Entities.Characters[0].Age)
	assert.Equal(t, 29, *result.Entities.Characters[0].Age)

	require.Len(t, result.Entities.PlotPoints, 1)
	require.Len(t, result.Relationships, 1)
	assert.Equal(t, "WORKS_AT", result.Relationships[0].Type.Name())
}

func TestDecodeExtractionCoercesFractionalAge(t *testing.T) {
	payload := []byte(`{"entities": {"characters": [{"name": "Sarah Kim", "age": 31.0}]}, "relationships": []}`)

	result, dropped, err := DecodeExtraction(payload)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, result.Entities.Characters, 1)
	require.NotNil(t, result.Entities.Characters[0].Age)
	assert.Equal(t, 31, *result.Entities.Characters[0].Age)
}

func TestDecodeExtractionNullAge(t *testing.T) {
	payload := []byte(`{"entities": {"characters": [{"name": "Ghost", "age": null}]}, "relationships": []}`)

	result, dropped, err := DecodeExtraction(payload)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, result.Entities.Characters, 1)
	assert.Nil(t, result.Entities.Characters[0].Age)
}

func TestDecodeExtractionMalformedPayload(t *testing.T) {
	_, _, err := DecodeExtraction([]byte(`{"entities": `))
	assert.Error(t, err)
}

func TestDecodeExtractionDerivesTagNames(t *testing.T) {
	payload := []byte(`{"entities": {"tags": [{"category": "skill", "value": "lockpicking"}]}, "relationships": []}`)

	result, _, err := DecodeExtraction(payload)
	require.NoError(t, err)
	require.Len(t, result.Entities.Tags, 1)
	assert.Equal(t, "Skill: Lockpicking", result.Entities.Tags[0].Name)
}

func TestEntitySetAllAndLen(t *testing.T) {
	set := EntitySet{
		Characters: []Character{{Name: "a"}},
		Scenes:     []Scene{{Title: "b"}},
		Tags:       []Tag{{Name: "c"}},
	}
	assert.Equal(t, 3, set.Len())
	assert.Len(t, set.All(), 3)
}
