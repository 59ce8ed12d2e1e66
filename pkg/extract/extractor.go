// Package extract adapts the language-model oracle into a structured
// entity/relationship extractor for draft text.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"

	"github.com/inklore/inklore/pkg/nlp"
	"github.com/inklore/inklore/pkg/types"
)

const extractionSystemPrompt = "You are an expert at analyzing creative writing text to extract entities and relationships for a knowledge graph database."

const extractionPromptTemplate = `You are an expert at analyzing creative writing to extract entities and relationships for a knowledge graph.

Context: %s

Text to analyze:
%s

Extract the following from this text and return as JSON:

1. Characters: People mentioned in the text
2. Locations: Places, settings, buildings, rooms, etc.
3. Scenes: If this represents a scene, extract scene info
4. Themes: Abstract concepts, motifs, or themes explored
5. Plot Points: Key events, conflicts, or story developments
6. Tags: Custom tags in @category:value format (like @power:hardening, @magic:fire)
7. Relationships: Connections between entities

Return in this exact JSON format:
{
    "entities": {
        "characters": [
            {
                "name": "Character Name",
                "description": "Brief description",
                "age": null or number,
                "role": "protagonist/antagonist/supporting/etc",
                "traits": ["trait1", "trait2"]
            }
        ],
        "locations": [
            {
                "name": "Location Name",
                "type": "city/building/room/etc",
                "description": "Description of the place"
            }
        ],
        "scenes": [
            {
                "title": "Scene Title",
                "summary": "Brief summary",
                "setting": "Where it takes place",
                "mood": "emotional tone"
            }
        ],
        "themes": [
            {
                "name": "Theme Name",
                "description": "What this theme represents"
            }
        ],
        "plot_points": [
            {
                "title": "Event Title",
                "description": "What happens",
                "importance": "major/minor",
                "type": "conflict/resolution/twist/etc"
            }
        ],
        "tags": [
            {
                "category": "power/magic/skill/etc",
                "value": "specific_ability",
                "name": "Display Name",
                "description": "What this represents"
            }
        ]
    },
    "relationships": [
        {
            "from": "Entity 1",
            "to": "Entity 2",
            "type": "KNOWS/LIVES_IN/APPEARS_IN/EXPLORES/etc",
            "description": "Description of relationship"
        }
    ]
}

Only extract entities and relationships that are clearly present in the text. Be accurate and conservative.`

// Extractor turns raw draft text into a typed ExtractionResult via the
// oracle. It fails soft: any call or parse failure is logged and an
// empty result is returned, never an error.
type Extractor struct {
	client nlp.Client
	cache  *Cache
	logger *slog.Logger
}

// NewExtractor creates an extractor over the given oracle client. The
// cache is optional; pass nil to call the oracle on every request.
func NewExtractor(client nlp.Client, cache *Cache, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, cache: cache, logger: logger}
}

// Extract asks the oracle for entities and relationships present in
// text. contextNote describes the source (file, title, story) and is
// embedded verbatim in the prompt.
func (e *Extractor) Extract(ctx context.Context, text, contextNote string) *types.ExtractionResult {
	raw, cached := e.cachedResponse(text, contextNote)
	if !cached {
		messages := []types.Message{
			types.NewSystemMessage(extractionSystemPrompt),
			types.NewUserMessage(fmt.Sprintf(extractionPromptTemplate, contextNote, text)),
		}

		resp, err := e.client.Chat(ctx, messages)
		if err != nil {
			e.logger.Error("oracle extraction call failed", "error", err)
			return types.EmptyExtractionResult()
		}
		raw = resp.Content
		e.storeResponse(text, contextNote, raw)
	}

	result, dropped, err := decodeResponse(raw)
	if err != nil {
		e.logger.Error("no usable JSON in oracle response", "error", err)
		return types.EmptyExtractionResult()
	}
	if dropped > 0 {
		e.logger.Warn("dropped extraction records missing natural keys", "count", dropped)
	}

	return result
}

// decodeResponse pulls the first JSON object out of a possibly prosey
// response, repairing near-JSON before giving up.
func decodeResponse(raw string) (*types.ExtractionResult, int, error) {
	candidate := ExtractJSONFromResponse(raw)
	if !strings.HasPrefix(strings.TrimSpace(candidate), "{") {
		return nil, 0, fmt.Errorf("response contains no JSON object")
	}

	result, dropped, err := types.DecodeExtraction([]byte(candidate))
	if err == nil {
		return result, dropped, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return nil, 0, fmt.Errorf("repairing oracle JSON: %w", repairErr)
	}
	return types.DecodeExtraction([]byte(repaired))
}

// ExtractJSONFromResponse attempts to extract JSON from oracle
// responses that may contain markdown code blocks or other surrounding
// text.
func ExtractJSONFromResponse(response string) string {
	response = strings.TrimSpace(response)

	// Check for ```json ... ``` pattern
	if strings.Contains(response, "```json") {
		start := strings.Index(response, "```json")
		end := strings.Index(response[start+7:], "```")
		if end != -1 {
			return strings.TrimSpace(response[start+7 : start+7+end])
		}
	}

	// Check for ``` ... ``` pattern
	if strings.HasPrefix(response, "```") {
		lines := strings.Split(response, "\n")
		if len(lines) > 2 {
			return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}

	// Fall back to the outermost object boundaries
	jsonStart := strings.Index(response, "{")
	jsonEnd := strings.LastIndex(response, "}")
	if jsonStart != -1 && jsonEnd != -1 && jsonEnd > jsonStart {
		return response[jsonStart : jsonEnd+1]
	}

	return response
}

// ValidJSON reports whether s parses as JSON.
func ValidJSON(s string) bool {
	var js json.RawMessage
	return json.Unmarshal([]byte(s), &js) == nil
}
