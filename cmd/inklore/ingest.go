package inklore

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	root "github.com/inklore/inklore"
	"github.com/inklore/inklore/pkg/ingest"
	"github.com/inklore/inklore/pkg/types"
)

var (
	ingestStory   string
	ingestRefresh bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Extract knowledge from files without moving them",
	Long: `Ingest extracts entities and relationships from files already in
place and merges them into the knowledge graph. Unlike organize, the
files are not classified or relocated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestStory, "story", "", "story title to associate ingested content with")
	ingestCmd.Flags().BoolVar(&ingestRefresh, "refresh", false, "reingest previously ingested files via a verified trial pass")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := root.New(ctx, nil)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	failed := 0
	for _, path := range args {
		opts := ingest.Options{StoryTitle: ingestStory, SourcePath: path}

		var result *types.ExtractionResult
		var report *ingest.Report
		var err error
		if ingestRefresh {
			var content []byte
			content, err = os.ReadFile(path)
			if err == nil {
				result, report, err = client.Pipeline().Reingest(ctx, client.Store(), string(content), path, opts)
			}
		} else {
			result, report, err = client.Pipeline().IngestFile(ctx, path, opts)
		}
		if err != nil {
			fmt.Printf("✗ %s: %v\n", path, err)
			failed++
			continue
		}

		fmt.Printf("✓ %s: %d entities, %d relationships\n",
			path, result.Entities.Len(), len(result.Relationships))
		for _, item := range report.Failures() {
			fmt.Printf("  ! %s\n", item)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d files failed", failed)
	}
	return nil
}
