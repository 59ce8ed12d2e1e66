package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassifiesEntityMarkers(t *testing.T) {
	set := Parse("@power:hardening @character:Soren")

	require.Len(t, set.Tags, 1)
	assert.Equal(t, "power", set.Tags[0].Category)
	assert.Equal(t, "hardening", set.Tags[0].Value)
	assert.Equal(t, "Power: Hardening", set.Tags[0].Name)

	require.Len(t, set.Characters, 1)
	assert.Equal(t, "Soren", set.Characters[0].Name)
	assert.Contains(t, set.Characters[0].Description, "@character:Soren")
}

func TestParseEntityCategories(t *testing.T) {
	text := "@Character:Alice @LOCATION:Binary_Cafe @scene:The_Meeting @theme:trust @story:Conspiracy"
	set := Parse(text)

	require.Len(t, set.Characters, 1)
	assert.Equal(t, "Alice", set.Characters[0].Name)

	require.Len(t, set.Locations, 1)
	assert.Equal(t, "Binary Cafe", set.Locations[0].Name)

	require.Len(t, set.Scenes, 1)
	assert.Equal(t, "The Meeting", set.Scenes[0].Title)

	require.Len(t, set.Themes, 1)
	assert.Equal(t, "trust", set.Themes[0].Name)

	require.Len(t, set.Stories, 1)
	assert.Equal(t, "Conspiracy", set.Stories[0].Title)

	assert.Empty(t, set.Tags)
}

func TestParseKeepsDuplicates(t *testing.T) {
	// Dedup is the ingestion pipeline's job, not the parser's.
	set := Parse("@magic:fire and later @magic:fire again")
	assert.Len(t, set.Tags, 2)
}

func TestParseIgnoresMalformedMarkers(t *testing.T) {
	set := Parse("email me @example.com or @:nothing here")
	assert.Zero(t, set.Len())
}

func TestParseEmptyText(t *testing.T) {
	set := Parse("")
	assert.Zero(t, set.Len())
	assert.Empty(t, set.All())
}
