package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inklore/inklore/pkg/types"
)

type scriptedClient struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (c *scriptedClient) Chat(_ context.Context, messages []types.Message) (*types.Response, error) {
	idx := c.calls
	c.calls++
	c.prompts = append(c.prompts, messages[len(messages)-1].Content)

	if idx < len(c.errs) && c.errs[idx] != nil {
		return nil, c.errs[idx]
	}
	if idx >= len(c.responses) {
		return nil, errors.New("no scripted response")
	}
	return &types.Response{Content: c.responses[idx]}, nil
}

func (c *scriptedClient) Close() error { return nil }

type fakeRunner struct {
	rows    []map[string]any
	err     error
	queries []string
}

func (r *fakeRunner) Run(_ context.Context, query string, _ map[string]any) ([]map[string]any, error) {
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAskHappyPath(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"```cypher\nMATCH (c:Character) RETURN c.name as name\n```",
		"You have two characters: Alice and Soren.",
	}}
	runner := &fakeRunner{rows: []map[string]any{
		{"name": "Alice"},
		{"name": "Soren"},
	}}

	a := New(client, runner, discardLogger())
	answer, err := a.Ask(context.Background(), "Who are my characters?")
	require.NoError(t, err)

	assert.Equal(t, "You have two characters: Alice and Soren.", answer)
	require.Len(t, runner.queries, 1)
	assert.Equal(t, "MATCH (c:Character) RETURN c.name as name", runner.queries[0])
	assert.Equal(t, 2, client.calls)
}

func TestAskExecutesGeneratedQueryVerbatim(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"MATCH (c:Character)-[:KNOWS]->(o) RETURN o.name",
		"ok",
	}}
	runner := &fakeRunner{rows: []map[string]any{{"o.name": "Mira"}}}

	a := New(client, runner, discardLogger())
	_, err := a.Ask(context.Background(), "Who does Alice know?")
	require.NoError(t, err)

	require.Len(t, runner.queries, 1)
	assert.Equal(t, "MATCH (c:Character)-[:KNOWS]->(o) RETURN o.name", runner.queries[0])
}

func TestAskNoResults(t *testing.T) {
	client := &scriptedClient{responses: []string{"MATCH (n:Ghost) RETURN n"}}
	runner := &fakeRunner{rows: nil}

	a := New(client, runner, discardLogger())
	answer, err := a.Ask(context.Background(), "Any ghosts?")
	require.NoError(t, err)

	assert.Equal(t, NoResultsMessage, answer)
	assert.Equal(t, 1, client.calls, "formatting call should be skipped")
}

func TestAskOracleFailureMeansNotUnderstood(t *testing.T) {
	client := &scriptedClient{errs: []error{errors.New("rate limited")}}
	runner := &fakeRunner{}

	a := New(client, runner, discardLogger())
	answer, err := a.Ask(context.Background(), "Who are my characters?")
	require.NoError(t, err)

	assert.Equal(t, NotUnderstoodMessage, answer)
	assert.Empty(t, runner.queries)
}

func TestAskEmptyGeneratedQuery(t *testing.T) {
	client := &scriptedClient{responses: []string{"```\n```"}}
	runner := &fakeRunner{}

	a := New(client, runner, discardLogger())
	answer, err := a.Ask(context.Background(), "???")
	require.NoError(t, err)

	assert.Equal(t, NotUnderstoodMessage, answer)
	assert.Empty(t, runner.queries)
}

func TestAskQueryExecutionError(t *testing.T) {
	client := &scriptedClient{responses: []string{"MATCH (n) RETURN n"}}
	runner := &fakeRunner{err: errors.New("connection refused")}

	a := New(client, runner, discardLogger())
	_, err := a.Ask(context.Background(), "everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAskFormattingFallsBackToListing(t *testing.T) {
	client := &scriptedClient{
		responses: []string{"MATCH (c:Character) RETURN c.name as name", ""},
		errs:      []error{nil, errors.New("oracle down")},
	}
	runner := &fakeRunner{rows: []map[string]any{{"name": "Alice"}}}

	a := New(client, runner, discardLogger())
	answer, err := a.Ask(context.Background(), "Who are my characters?")
	require.NoError(t, err)

	assert.Contains(t, answer, "Found 1 results")
	assert.Contains(t, answer, "Alice")
}

func TestAskPromptDescribesSchema(t *testing.T) {
	client := &scriptedClient{responses: []string{"MATCH (n) RETURN n", "ok"}}
	runner := &fakeRunner{rows: []map[string]any{{"n": "x"}}}

	a := New(client, runner, discardLogger())
	_, err := a.Ask(context.Background(), "What powers does Alice have?")
	require.NoError(t, err)

	require.NotEmpty(t, client.prompts)
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "Character -[:APPEARS_IN]-> Scene")
	assert.Contains(t, prompt, "Tag (name, category, value, description)")
	assert.Contains(t, prompt, "What powers does Alice have?")
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"cypher fence", "```cypher\nMATCH (n) RETURN n\n```", "MATCH (n) RETURN n"},
		{"plain fence", "```\nMATCH (n) RETURN n\n```", "MATCH (n) RETURN n"},
		{"no fence", "MATCH (n) RETURN n", "MATCH (n) RETURN n"},
		{"surrounding whitespace", "  MATCH (n) RETURN n  ", "MATCH (n) RETURN n"},
		{"empty fence", "```\n```", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestStoryInsightsScopesToTitle(t *testing.T) {
	runner := &fakeRunner{rows: []map[string]any{
		{"title": "The Hollow Crown", "character_count": int64(4), "scene_count": int64(7), "total_words": int64(12000), "name": "Alice"},
	}}

	a := New(&scriptedClient{}, runner, discardLogger())
	out, err := a.StoryInsights(context.Background(), "The Hollow Crown")
	require.NoError(t, err)

	assert.Contains(t, out, "The Hollow Crown")
	require.Len(t, runner.queries, 3)
	for _, q := range runner.queries {
		assert.Contains(t, q, "{title: $title}")
	}
}

func TestStoryInsightsAllStories(t *testing.T) {
	runner := &fakeRunner{rows: []map[string]any{
		{"character_count": int64(2), "scene_count": int64(3), "total_words": int64(500), "name": "Mira"},
	}}

	a := New(&scriptedClient{}, runner, discardLogger())
	out, err := a.StoryInsights(context.Background(), "")
	require.NoError(t, err)

	assert.NotEmpty(t, out)
	for _, q := range runner.queries {
		assert.False(t, strings.Contains(q, "$title"), "unscoped insights should not filter by title")
	}
}

func TestStoryInsightsEmptyGraph(t *testing.T) {
	runner := &fakeRunner{rows: nil}

	a := New(&scriptedClient{}, runner, discardLogger())
	out, err := a.StoryInsights(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "No story data")
}

func TestSuggestQuestions(t *testing.T) {
	qs := SuggestQuestions()
	require.NotEmpty(t, qs)
	for _, q := range qs {
		assert.NotEmpty(t, q)
	}
}
