package inklore

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	root "github.com/inklore/inklore"
	"github.com/inklore/inklore/pkg/assistant"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask questions about your story world",
	Long: `Ask translates a natural-language question into a graph query, runs
it, and answers in plain English.

With a question argument it answers once and exits. Without one it
starts an interactive session; type "help" for suggested questions,
"insights" for story statistics, or "quit" to leave.`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := root.New(ctx, nil)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	if len(args) > 0 {
		answer, err := client.Ask(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	}

	fmt.Println("Ask about your story world. Type 'help' for ideas, 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(question) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help":
			fmt.Println("Try asking:")
			for _, q := range assistant.SuggestQuestions() {
				fmt.Printf("  - %s\n", q)
			}
			continue
		case "insights":
			out, err := client.StoryInsights(ctx, "")
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Println(out)
			continue
		}

		answer, err := client.Ask(ctx, question)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
	return scanner.Err()
}
