package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRelationshipType(t *testing.T) {
	tests := []struct {
		raw         string
		name        string
		known       bool
		quarantined bool
	}{
		{"KNOWS", "KNOWS", true, false},
		{"knows", "KNOWS", true, false},
		{"takes place in", "TAKES_PLACE_IN", true, false},
		{"lives-in", "LIVES_IN", true, false},
		{"MENTORS", "MENTORS", false, false},
		{"works at", "WORKS_AT", false, false},
		{"r]->(x) DETACH DELETE x //", "RELATED_TO", false, true},
		{"", "RELATED_TO", false, true},
		{"related_to", "RELATED_TO", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rt := ParseRelationshipType(tt.raw)
			assert.Equal(t, tt.name, rt.Name())
			assert.Equal(t, tt.known, rt.Known())
			assert.Equal(t, tt.quarantined, rt.Quarantined())
			assert.Equal(t, tt.raw, rt.Raw())
		})
	}
}

func TestRelationshipValidate(t *testing.T) {
	valid := Relationship{From: "Alice", To: "Sarah", Type: ParseRelationshipType("KNOWS")}
	assert.NoError(t, valid.Validate())

	assert.ErrorIs(t, Relationship{From: "", To: "Sarah"}.Validate(), ErrEmptyEndpoint)
	assert.ErrorIs(t, Relationship{From: "Alice", To: "  "}.Validate(), ErrEmptyEndpoint)
}
