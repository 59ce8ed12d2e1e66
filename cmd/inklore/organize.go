package inklore

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	root "github.com/inklore/inklore"
	"github.com/inklore/inklore/pkg/config"
	"github.com/inklore/inklore/pkg/organize"
)

var (
	organizeStory  string
	organizeDryRun bool
)

var organizeCmd = &cobra.Command{
	Use:   "organize [draft]",
	Short: "Classify, file, and ingest writing drafts",
	Long: `Organize processes markdown drafts: each file is classified by
content type, moved into the matching content subdirectory, and its
entities and relationships are extracted into the knowledge graph.

With no argument, every draft in the drafts directory is processed.
With a file argument, only that draft is processed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrganize,
}

func init() {
	organizeCmd.Flags().StringVar(&organizeStory, "story", "", "story title to associate ingested content with")
	organizeCmd.Flags().BoolVar(&organizeDryRun, "dry-run", false, "show planned moves without moving or ingesting anything")
	rootCmd.AddCommand(organizeCmd)
}

func runOrganize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if organizeDryRun {
		return runOrganizeDryRun(cfg, args)
	}

	ctx := cmd.Context()
	client, err := root.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	var results []organize.Result
	if len(args) == 1 {
		results = []organize.Result{client.OrganizeDraft(ctx, args[0], organizeStory)}
	} else {
		results, err = client.OrganizeAll(ctx, organizeStory)
		if err != nil {
			return err
		}
	}

	summary := organize.Summarize(results)
	for _, r := range summary.Succeeded {
		fmt.Printf("✓ %s -> %s (%s)\n", filepath.Base(r.OriginalPath), r.NewPath, r.ContentType)
		if r.Report != nil {
			for _, item := range r.Report.Failures() {
				fmt.Printf("  ! %s\n", item)
			}
		}
	}
	for _, r := range summary.Failed {
		fmt.Printf("✗ %s: %v\n", filepath.Base(r.OriginalPath), r.Err)
	}
	fmt.Printf("\n%d organized, %d failed\n", len(summary.Succeeded), len(summary.Failed))

	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d drafts failed", len(summary.Failed))
	}
	return nil
}

// runOrganizeDryRun prints planned moves without connecting to the
// database or moving anything.
func runOrganizeDryRun(cfg *config.Config, args []string) error {
	organizer := organize.NewOrganizer(cfg.Content.BaseDir, nil, nil)

	drafts := args
	if len(drafts) == 0 {
		var err error
		drafts, err = organizer.ListDrafts()
		if err != nil {
			return err
		}
	}

	if len(drafts) == 0 {
		fmt.Println("No drafts to organize.")
		return nil
	}

	fmt.Println("Dry run, nothing will be moved or ingested:")
	for _, path := range drafts {
		plan, err := organizer.PlanDraft(path)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", filepath.Base(path), err)
			continue
		}
		fmt.Printf("  %s -> %s (%s)\n",
			filepath.Base(path), filepath.Join(plan.TargetDir, plan.Filename), plan.ContentType)
	}
	return nil
}
