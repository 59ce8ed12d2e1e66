package inklore

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	root "github.com/inklore/inklore"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Inspect the knowledge graph directly",
}

var showCharactersCmd = &cobra.Command{
	Use:   "characters",
	Short: "List every character",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(client *root.Client) error {
			rows, err := client.Store().AllCharacters(cmd.Context())
			if err != nil {
				return err
			}
			printRows(rows)
			return nil
		})
	},
}

var showStoryCmd = &cobra.Command{
	Use:   "story <title>",
	Short: "Show a story's characters, locations, and scenes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(client *root.Client) error {
			overview, err := client.Store().GetStoryOverview(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Story: %s\n\nCharacters:\n", args[0])
			printRows(overview.Characters)
			fmt.Println("\nLocations:")
			printRows(overview.Locations)
			fmt.Println("\nScenes:")
			printRows(overview.Scenes)
			return nil
		})
	},
}

var showScenesCmd = &cobra.Command{
	Use:   "scenes <character>",
	Short: "List the scenes a character appears in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(client *root.Client) error {
			rows, err := client.Store().CharacterScenes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRows(rows)
			return nil
		})
	},
}

var showRelationshipsCmd = &cobra.Command{
	Use:   "relationships <character>",
	Short: "List a character's relationships",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(client *root.Client) error {
			rows, err := client.Store().CharacterRelationships(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRows(rows)
			return nil
		})
	},
}

var showTagsCmd = &cobra.Command{
	Use:   "tags [category]",
	Short: "List tags, optionally filtered by category",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(client *root.Client) error {
			var rows []map[string]any
			var err error
			if len(args) == 1 {
				rows, err = client.Store().TagsByCategory(cmd.Context(), args[0])
			} else {
				rows, err = client.Store().AllTags(cmd.Context())
			}
			if err != nil {
				return err
			}
			printRows(rows)
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search characters, locations, and scenes by keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(client *root.Client) error {
			hits, err := client.Store().SearchByKeyword(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			labels := make([]string, 0, len(hits))
			for label := range hits {
				labels = append(labels, label)
			}
			sort.Strings(labels)

			total := 0
			for _, label := range labels {
				if len(hits[label]) == 0 {
					continue
				}
				fmt.Printf("%s:\n", label)
				printRows(hits[label])
				total += len(hits[label])
			}
			if total == 0 {
				fmt.Printf("Nothing matched %q.\n", args[0])
			}
			return nil
		})
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights [story]",
	Short: "Show statistics about a story, or all writing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(client *root.Client) error {
			title := ""
			if len(args) == 1 {
				title = args[0]
			}
			out, err := client.StoryInsights(cmd.Context(), title)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <run-id>",
	Short: "Remove graph data left over from a trial run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(client *root.Client) error {
			if err := client.Cleanup(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed data marked with run %s\n", args[0])
			return nil
		})
	},
}

func init() {
	showCmd.AddCommand(showCharactersCmd, showStoryCmd, showScenesCmd, showRelationshipsCmd, showTagsCmd)
	rootCmd.AddCommand(showCmd, searchCmd, insightsCmd, cleanupCmd)
}

// withClient builds a connected client, runs fn, and closes it.
func withClient(cmd *cobra.Command, fn func(*root.Client) error) error {
	ctx := cmd.Context()
	client, err := root.New(ctx, nil)
	if err != nil {
		return err
	}
	defer client.Close(ctx)
	return fn(client)
}

func printRows(rows []map[string]any) {
	if len(rows) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Print("  -")
		for _, k := range keys {
			if row[k] == nil {
				continue
			}
			fmt.Printf(" %s=%v", k, row[k])
		}
		fmt.Println()
	}
}
