// Package organize classifies draft files by content type, relocates
// them into per-type directories, and feeds them to the ingestion
// pipeline.
package organize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inklore/inklore/pkg/ingest"
)

// ContentType is a detected document category mapping onto a content
// subdirectory.
type ContentType string

const (
	TypeCharacter     ContentType = "character"
	TypeLocation      ContentType = "location"
	TypeScene         ContentType = "scene"
	TypeStory         ContentType = "story"
	TypeWorldbuilding ContentType = "worldbuilding"
	TypeTheme         ContentType = "theme"
	TypeResearch      ContentType = "research"
)

// typeDirs maps content types to their directory bucket under the base
// content directory.
var typeDirs = map[ContentType]string{
	TypeCharacter:     "characters",
	TypeLocation:      "locations",
	TypeScene:         "scenes",
	TypeStory:         "stories",
	TypeWorldbuilding: "worldbuilding",
	TypeTheme:         "themes",
	TypeResearch:      "research",
}

// typeKeywords are body indicators checked in fixed priority order;
// the first matching set wins.
var typeKeywords = []struct {
	contentType ContentType
	words       []string
}{
	{TypeCharacter, []string{"character:", "personality:", "backstory:", "appearance:"}},
	{TypeLocation, []string{"location:", "setting:", "geography:", "architecture:"}},
	{TypeScene, []string{"scene:", "dialogue:", "action:", "pov:"}},
	{TypeStory, []string{"chapter", "story:", "plot:", "narrative:"}},
	{TypeWorldbuilding, []string{"magic system", "world:", "culture:", "history:", "religion:", "technology:"}},
	{TypeTheme, []string{"theme:", "motif:", "symbolism:", "meaning:"}},
	{TypeResearch, []string{"research:", "reference:", "inspiration:", "notes:"}},
}

var (
	frontmatterPattern = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n`)
	headingPattern     = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	unsafeNameChars    = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
)

// frontmatter is the subset of the leading YAML block the organizer
// inspects.
type frontmatter struct {
	Type  string `yaml:"type"`
	Title string `yaml:"title"`
}

// parseFrontmatter decodes the leading ----delimited block, if any.
func parseFrontmatter(content string) *frontmatter {
	m := frontmatterPattern.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	var fm frontmatter
	if err := yaml.Unmarshal([]byte(m[1]), &fm); err != nil {
		return nil
	}
	return &fm
}

// DetectContentType classifies document content. An explicit
// frontmatter type wins; otherwise the keyword sets are checked in
// priority order; unmatched content defaults to story.
func DetectContentType(content string) ContentType {
	if fm := parseFrontmatter(content); fm != nil && fm.Type != "" {
		return ContentType(strings.ToLower(strings.TrimSpace(fm.Type)))
	}

	lower := strings.ToLower(content)
	for _, tk := range typeKeywords {
		for _, word := range tk.words {
			if strings.Contains(lower, word) {
				return tk.contentType
			}
		}
	}

	return TypeStory
}

// TitleFromContent derives a filename stem from the first markdown
// heading or the frontmatter title, sanitized to lowercase word
// characters. Returns "" when neither is present.
func TitleFromContent(content string) string {
	if m := headingPattern.FindStringSubmatch(content); m != nil {
		return sanitizeTitle(m[1])
	}
	if fm := parseFrontmatter(content); fm != nil && fm.Title != "" {
		return sanitizeTitle(strings.Trim(fm.Title, `"'`))
	}
	return ""
}

func sanitizeTitle(title string) string {
	clean := unsafeNameChars.ReplaceAllString(strings.TrimSpace(title), "")
	clean = whitespaceRun.ReplaceAllString(strings.TrimSpace(clean), "_")
	return strings.ToLower(clean)
}

// Result records the outcome of processing one draft.
type Result struct {
	OriginalPath string
	NewPath      string
	ContentType  ContentType
	Filename     string
	Report       *ingest.Report
	Err          error
}

// Organizer relocates drafts and drives ingestion.
type Organizer struct {
	baseDir   string
	draftsDir string
	pipeline  *ingest.Pipeline
	logger    *slog.Logger
}

// NewOrganizer creates an organizer over the given content base
// directory.
func NewOrganizer(baseDir string, pipeline *ingest.Pipeline, logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Organizer{
		baseDir:   baseDir,
		draftsDir: filepath.Join(baseDir, "drafts"),
		pipeline:  pipeline,
		logger:    logger,
	}
}

// Plan describes the classification and relocation that would happen
// for a file, without performing it. Used by dry runs.
type Plan struct {
	ContentType ContentType
	Filename    string
	TargetDir   string
}

// PlanDraft classifies a file and reports where it would go.
func (o *Organizer) PlanDraft(path string) (*Plan, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading draft %s: %w", path, err)
	}

	contentType := DetectContentType(string(content))
	filename := o.generateFilename(path, string(content))

	// Unrecognized declared types land in the story bucket.
	dir, ok := typeDirs[contentType]
	if !ok {
		dir = typeDirs[TypeStory]
	}

	return &Plan{
		ContentType: contentType,
		Filename:    filename,
		TargetDir:   filepath.Join(o.baseDir, dir),
	}, nil
}

// ProcessDraft classifies, relocates, and ingests a single draft file.
func (o *Organizer) ProcessDraft(ctx context.Context, path, storyTitle string) Result {
	result := Result{OriginalPath: path}

	plan, err := o.PlanDraft(path)
	if err != nil {
		result.Err = err
		return result
	}
	result.ContentType = plan.ContentType

	newPath, err := o.moveDraft(path, plan)
	if err != nil {
		result.Err = err
		return result
	}
	result.NewPath = newPath
	result.Filename = filepath.Base(newPath)

	o.logger.Info("organized draft",
		"from", path, "to", newPath, "type", plan.ContentType)

	_, report, err := o.pipeline.IngestFile(ctx, newPath, ingest.Options{
		StoryTitle: storyTitle,
	})
	result.Report = report
	result.Err = err
	return result
}

// ProcessAll processes every markdown draft in the drafts directory.
// A missing drafts directory is reported and treated as a no-op.
// Per-file failures are recorded and do not abort the batch.
func (o *Organizer) ProcessAll(ctx context.Context, storyTitle string) ([]Result, error) {
	drafts, err := o.ListDrafts()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(drafts))
	for _, path := range drafts {
		result := o.ProcessDraft(ctx, path, storyTitle)
		if result.Err != nil {
			o.logger.Error("draft processing failed", "path", path, "error", result.Err)
		}
		results = append(results, result)
	}
	return results, nil
}

// ListDrafts returns the markdown files waiting in the drafts
// directory.
func (o *Organizer) ListDrafts() ([]string, error) {
	if _, err := os.Stat(o.draftsDir); err != nil {
		return nil, fmt.Errorf("drafts directory not found: %s", o.draftsDir)
	}
	return filepath.Glob(filepath.Join(o.draftsDir, "*.md"))
}

// generateFilename derives the target filename from content, falling
// back to the original name.
func (o *Organizer) generateFilename(path, content string) string {
	if title := TitleFromContent(content); title != "" {
		return title + ".md"
	}
	return filepath.Base(path)
}

// moveDraft relocates the file into its type bucket, resolving name
// collisions with an incrementing numeric suffix.
func (o *Organizer) moveDraft(path string, plan *Plan) (string, error) {
	if err := os.MkdirAll(plan.TargetDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", plan.TargetDir, err)
	}

	target := filepath.Join(plan.TargetDir, plan.Filename)
	ext := filepath.Ext(plan.Filename)
	stem := strings.TrimSuffix(plan.Filename, ext)

	for counter := 1; ; counter++ {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			break
		}
		target = filepath.Join(plan.TargetDir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
	}

	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("moving %s to %s: %w", path, target, err)
	}
	return target, nil
}

// Summary tallies a batch's outcomes for display.
type Summary struct {
	Succeeded []Result
	Failed    []Result
}

// Summarize partitions results by success.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.Err != nil {
			s.Failed = append(s.Failed, r)
		} else {
			s.Succeeded = append(s.Succeeded, r)
		}
	}
	return s
}
