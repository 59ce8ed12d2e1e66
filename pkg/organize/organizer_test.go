package organize

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inklore/inklore/pkg/graph"
	"github.com/inklore/inklore/pkg/ingest"
	"github.com/inklore/inklore/pkg/types"
)

type stubOracle struct{}

func (stubOracle) Extract(ctx context.Context, text, contextNote string) *types.ExtractionResult {
	return types.EmptyExtractionResult()
}

type stubWriter struct {
	upserts int
}

func (s *stubWriter) UpsertEntity(ctx context.Context, e types.Entity, prov *graph.Provenance) error {
	s.upserts++
	return nil
}

func (s *stubWriter) CreateRelationship(ctx context.Context, rel types.Relationship, prov *graph.Provenance) error {
	return nil
}

func newTestOrganizer(t *testing.T) (*Organizer, string, *stubWriter) {
	t.Helper()
	baseDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, "drafts"), 0o755))
	writer := &stubWriter{}
	pipeline := ingest.NewPipeline(stubOracle{}, writer, nil)
	return NewOrganizer(baseDir, pipeline, nil), baseDir, writer
}

func writeDraft(t *testing.T, baseDir, name, content string) string {
	t.Helper()
	path := filepath.Join(baseDir, "drafts", name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected ContentType
	}{
		{"frontmatter type wins", "---\ntype: location\n---\nPersonality: brave", TypeLocation},
		{"character keywords", "Personality: brave and reckless", TypeCharacter},
		{"location keywords", "The Setting: a drowned city", TypeLocation},
		{"scene keywords", "POV: Alice\nsome prose", TypeScene},
		{"story keywords", "Chapter One\nIt begins.", TypeStory},
		{"worldbuilding keywords", "The magic system runs on debts.", TypeWorldbuilding},
		{"theme keywords", "Motif: mirrors everywhere", TypeTheme},
		{"research keywords", "Reference: 1920s radio tech", TypeResearch},
		{"default story", "Just some untyped prose.", TypeStory},
		{"priority order favors character", "Personality: kind\nSetting: a farm", TypeCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectContentType(tt.content))
		})
	}
}

func TestTitleFromContent(t *testing.T) {
	assert.Equal(t, "the_discovery", TitleFromContent("# The Discovery\nbody"))
	assert.Equal(t, "alices_stand", TitleFromContent("# Alice's Stand!\nbody"))
	assert.Equal(t, "quiet_rooms", TitleFromContent("---\ntitle: \"Quiet Rooms\"\n---\nbody"))
	assert.Equal(t, "", TitleFromContent("no heading here"))
	// A heading beats frontmatter.
	assert.Equal(t, "heading", TitleFromContent("---\ntitle: Front\n---\n# Heading\n"))
}

func TestProcessDraftRelocatesAndIngests(t *testing.T) {
	organizer, baseDir, writer := newTestOrganizer(t)
	path := writeDraft(t, baseDir, "untitled1.md",
		"# Soren Vale\n\nPersonality: brave and reckless\n@power:hardening")

	result := organizer.ProcessDraft(context.Background(), path, "")
	require.NoError(t, result.Err)

	assert.Equal(t, TypeCharacter, result.ContentType)
	assert.Equal(t, "soren_vale.md", result.Filename)
	assert.Equal(t, filepath.Join(baseDir, "characters", "soren_vale.md"), result.NewPath)

	// Original gone, relocated file present.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(result.NewPath)
	assert.NoError(t, err)

	// Inline tag reached the pipeline.
	assert.Equal(t, 1, writer.upserts)
}

func TestProcessDraftResolvesNameCollisions(t *testing.T) {
	organizer, baseDir, _ := newTestOrganizer(t)

	charDir := filepath.Join(baseDir, "characters")
	require.NoError(t, os.MkdirAll(charDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(charDir, "foo.md"), []byte("existing"), 0o644))

	path := writeDraft(t, baseDir, "new.md", "# Foo\nPersonality: sly")
	result := organizer.ProcessDraft(context.Background(), path, "")
	require.NoError(t, result.Err)

	assert.Equal(t, "foo_1.md", result.Filename)

	// A second collision increments again.
	path = writeDraft(t, baseDir, "another.md", "# Foo\nPersonality: loud")
	result = organizer.ProcessDraft(context.Background(), path, "")
	require.NoError(t, result.Err)
	assert.Equal(t, "foo_2.md", result.Filename)

	// The existing file was never overwritten.
	existing, err := os.ReadFile(filepath.Join(charDir, "foo.md"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(existing))
}

func TestProcessDraftFallsBackToOriginalFilename(t *testing.T) {
	organizer, baseDir, _ := newTestOrganizer(t)
	path := writeDraft(t, baseDir, "fragment.md", "Just prose, no heading.")

	result := organizer.ProcessDraft(context.Background(), path, "")
	require.NoError(t, result.Err)
	assert.Equal(t, "fragment.md", result.Filename)
	assert.Equal(t, TypeStory, result.ContentType)
}

func TestProcessAllContinuesPastFailures(t *testing.T) {
	organizer, baseDir, _ := newTestOrganizer(t)
	writeDraft(t, baseDir, "good.md", "# Good\nPersonality: fine")
	// An unreadable entry: a directory masquerading as a draft.
	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, "drafts", "bad.md"), 0o755))

	results, err := organizer.ProcessAll(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	summary := Summarize(results)
	assert.Len(t, summary.Succeeded, 1)
	assert.Len(t, summary.Failed, 1)
}

func TestProcessAllMissingDraftsDir(t *testing.T) {
	writer := &stubWriter{}
	pipeline := ingest.NewPipeline(stubOracle{}, writer, nil)
	organizer := NewOrganizer(filepath.Join(t.TempDir(), "nope"), pipeline, nil)

	_, err := organizer.ProcessAll(context.Background(), "")
	assert.Error(t, err)
}

func TestPlanDraftDryRun(t *testing.T) {
	organizer, baseDir, writer := newTestOrganizer(t)
	path := writeDraft(t, baseDir, "draft.md", "---\ntype: theme\ntitle: Decay\n---\nbody")

	plan, err := organizer.PlanDraft(path)
	require.NoError(t, err)
	assert.Equal(t, TypeTheme, plan.ContentType)
	assert.Equal(t, "decay.md", plan.Filename)
	assert.Equal(t, filepath.Join(baseDir, "themes"), plan.TargetDir)

	// Planning moved nothing and ingested nothing.
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
	assert.Zero(t, writer.upserts)
}
