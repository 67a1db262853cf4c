package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stackops/issueops/internal/reconcile"
)

var commentCmd = &cobra.Command{
	Use:   "comment <issue-number>",
	Short: "Post a comment on an issue",
	Long: `Post a single comment on the given issue, e.g. to record a recovery note
from a follow-up workflow run.

Example:
  issueops comment 42 --body "Deployment recovered in run 43"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var number int
		if _, err := fmt.Sscanf(args[0], "%d", &number); err != nil || number <= 0 {
			return fmt.Errorf("invalid issue number %q", args[0])
		}
		body, _ := cmd.Flags().GetString("body")

		store, _, err := newStore()
		if err != nil {
			return err
		}
		notifier, err := reconcile.NewNotifier(store, nil)
		if err != nil {
			return err
		}
		if err := notifier.Comment(context.Background(), number, body); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s comment on issue #%d\n", green("Posted"), number)
		return nil
	},
}

func init() {
	commentCmd.Flags().String("body", "", "comment body")
	_ = commentCmd.MarkFlagRequired("body")
	rootCmd.AddCommand(commentCmd)
}
