// Package tags extracts inline @category:value markers from draft text.
//
// Markers whose category names a first-class entity type (character,
// location, scene, theme, story) are promoted to minimal entities of
// that type; everything else becomes a generic Tag record. No
// deduplication happens here; repeated markers produce repeated
// candidate records for the ingestion pipeline to merge.
package tags

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/inklore/inklore/pkg/types"
)

// markerPattern matches @category:value markers, e.g. @power:hardening.
var markerPattern = regexp.MustCompile(`@(\w+):([A-Za-z_]+)`)

// Parse scans text for inline markers and partitions them into entity
// buckets.
func Parse(text string) types.EntitySet {
	var set types.EntitySet

	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		category, value := m[1], m[2]
		name := strings.ReplaceAll(value, "_", " ")
		placeholder := fmt.Sprintf("Tagged inline as @%s:%s", category, value)

		switch strings.ToLower(category) {
		case "character":
			set.Characters = append(set.Characters, types.Character{
				Name:        name,
				Description: placeholder,
			})
		case "location":
			set.Locations = append(set.Locations, types.Location{
				Name:        name,
				Description: placeholder,
			})
		case "scene":
			set.Scenes = append(set.Scenes, types.Scene{
				Title:   name,
				Summary: placeholder,
			})
		case "theme":
			set.Themes = append(set.Themes, types.Theme{
				Name:        name,
				Description: placeholder,
			})
		case "story":
			set.Stories = append(set.Stories, types.Story{
				Title:   name,
				Summary: placeholder,
			})
		default:
			tag := types.Tag{
				Category:    category,
				Value:       value,
				Description: placeholder,
			}
			tag.Name = tag.DisplayName()
			set.Tags = append(set.Tags, tag)
		}
	}

	return set
}
