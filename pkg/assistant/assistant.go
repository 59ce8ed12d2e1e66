// Package assistant translates natural-language questions about the
// writing graph into Cypher via the oracle, executes them, and renders
// the rows back into prose.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inklore/inklore/pkg/graph"
	"github.com/inklore/inklore/pkg/nlp"
	"github.com/inklore/inklore/pkg/types"
)

// NoResultsMessage is returned verbatim when a generated query matches
// nothing.
const NoResultsMessage = "I didn't find any results for that question."

// NotUnderstoodMessage is returned when query generation produced
// nothing usable.
const NotUnderstoodMessage = "I couldn't understand that question. Try rephrasing it."

const querySystemPrompt = "You are an expert at converting natural language to Cypher queries. Return only valid Cypher syntax."

const queryPromptTemplate = `You are an expert at converting natural language questions about creative writing into Neo4j Cypher queries.

The database schema includes these node types:
- Character (name, description, age, role, traits)
- Location (name, type, description)
- Scene (title, summary, setting, mood, word_count, status)
- Story (title, genre, status, summary)
- Theme (name, description)
- PlotPoint (title, description, importance, type)
- Tag (name, category, value, description) - represents @tag:value syntax like @power:hardening

Common relationships:
- Character -[:APPEARS_IN]-> Scene
- Character -[:KNOWS]-> Character
- Character -[:LIVES_IN]-> Location
- Character -[:HAS]-> Tag (for abilities, powers, skills)
- Scene -[:TAKES_PLACE_IN]-> Location
- Scene -[:PART_OF]-> Story
- Scene -[:FOLLOWS]-> Scene
- Story -[:EXPLORES]-> Theme
- Character -[:EMBODIES]-> Theme
- Tag -[:BELONGS_TO]-> Character (reverse of HAS)

Question: %s

Convert this to a Cypher query. Return ONLY the Cypher query, no explanation:`

const formatSystemPrompt = "You are a helpful writing assistant. Format database query results into natural, conversational responses."

const formatPromptTemplate = `Question: %s

Query Results: %v

Format these query results into a natural, conversational response that answers the original question.
Be concise but informative. If there are multiple results, organize them clearly.`

// Assistant answers free-form questions against the graph.
type Assistant struct {
	client nlp.Client
	runner graph.Runner
	logger *slog.Logger
}

// New creates an assistant over an oracle client and a query runner.
func New(client nlp.Client, runner graph.Runner, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{client: client, runner: runner, logger: logger}
}

// GenerateQuery asks the oracle to translate a question into Cypher.
// Failures are logged and surface as an empty query.
func (a *Assistant) GenerateQuery(ctx context.Context, question string) string {
	messages := []types.Message{
		types.NewSystemMessage(querySystemPrompt),
		types.NewUserMessage(fmt.Sprintf(queryPromptTemplate, question)),
	}

	resp, err := a.client.Chat(ctx, messages)
	if err != nil {
		a.logger.Error("query generation failed", "error", err)
		return ""
	}

	return StripCodeFences(resp.Content)
}

// Ask answers a natural-language question: generate a query, run it
// verbatim, and format the rows. The generated query is executed
// unrestricted; the oracle is a trusted collaborator here and the
// execution is logged for audit.
func (a *Assistant) Ask(ctx context.Context, question string) (string, error) {
	query := a.GenerateQuery(ctx, question)
	if query == "" {
		return NotUnderstoodMessage, nil
	}

	a.logger.Info("executing generated query", "question", question, "query", query)

	rows, err := a.runner.Run(ctx, query, nil)
	if err != nil {
		a.logger.Error("generated query failed", "query", query, "error", err)
		return "", fmt.Errorf("executing generated query: %w", err)
	}

	if len(rows) == 0 {
		return NoResultsMessage, nil
	}

	return a.formatResults(ctx, question, rows), nil
}

// formatResults renders result rows into prose via a second oracle
// call, falling back to a plain enumerated listing when that call
// fails.
func (a *Assistant) formatResults(ctx context.Context, question string, rows []map[string]any) string {
	messages := []types.Message{
		types.NewSystemMessage(formatSystemPrompt),
		types.NewUserMessage(fmt.Sprintf(formatPromptTemplate, question, rows)),
	}

	resp, err := a.client.Chat(ctx, messages)
	if err != nil {
		a.logger.Warn("result formatting failed, falling back to listing", "error", err)
		return enumerateRows(rows)
	}

	return resp.Content
}

func enumerateRows(rows []map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results:\n", len(rows))
	for i, row := range rows {
		fmt.Fprintf(&b, "%d. %v\n", i+1, row)
	}
	return b.String()
}

// StripCodeFences removes surrounding markdown code-fence markup from
// an oracle-produced query string.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)

	for _, prefix := range []string{"```cypher", "```"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// StoryInsights returns high-level statistics about a story, or about
// all writing when storyTitle is empty.
func (a *Assistant) StoryInsights(ctx context.Context, storyTitle string) (string, error) {
	match := "MATCH (story:Story)"
	params := map[string]any{}
	if storyTitle != "" {
		match = "MATCH (story:Story {title: $title})"
		params["title"] = storyTitle
	}

	var insights []string

	characterRows, err := a.runner.Run(ctx, fmt.Sprintf(`%s
MATCH (c:Character)-[:APPEARS_IN]->(s:Scene)-[:PART_OF]->(story)
RETURN count(DISTINCT c) as character_count, story.title as title`, match), params)
	if err != nil {
		return "", fmt.Errorf("collecting character insights: %w", err)
	}
	if len(characterRows) > 0 {
		title, _ := characterRows[0]["title"].(string)
		if title == "" {
			title = "Your writing"
		}
		insights = append(insights, fmt.Sprintf("%s has %v characters", title, characterRows[0]["character_count"]))
	}

	sceneRows, err := a.runner.Run(ctx, fmt.Sprintf(`%s
MATCH (s:Scene)-[:PART_OF]->(story)
RETURN count(s) as scene_count, sum(s.word_count) as total_words`, match), params)
	if err != nil {
		return "", fmt.Errorf("collecting scene insights: %w", err)
	}
	if len(sceneRows) > 0 {
		insights = append(insights, fmt.Sprintf("%v scenes with %v total words",
			sceneRows[0]["scene_count"], sceneRows[0]["total_words"]))
	}

	popularRows, err := a.runner.Run(ctx, fmt.Sprintf(`%s
MATCH (c:Character)-[:APPEARS_IN]->(s:Scene)-[:PART_OF]->(story)
WITH c, count(s) as scene_count
ORDER BY scene_count DESC
LIMIT 1
RETURN c.name as name, scene_count`, match), params)
	if err != nil {
		return "", fmt.Errorf("collecting popularity insights: %w", err)
	}
	if len(popularRows) > 0 {
		insights = append(insights, fmt.Sprintf("%v appears in %v scenes",
			popularRows[0]["name"], popularRows[0]["scene_count"]))
	}

	if len(insights) == 0 {
		return "No story data yet. Ingest some drafts first.", nil
	}
	return strings.Join(insights, "\n"), nil
}

// SuggestQuestions returns starter questions for the interactive
// prompt.
func SuggestQuestions() []string {
	return []string{
		"Who are the main characters in my story?",
		"Which characters appear together most often?",
		"What locations are used in my story?",
		"Show me the scene sequence",
		"Which themes am I exploring?",
		"Who are Alice's connections?",
		"Which characters haven't interacted yet?",
		"What plot points need development?",
		"Show me character relationship networks",
	}
}
