package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stackops/issueops/internal/duplicates"
	"github.com/stackops/issueops/internal/tracker"
)

var closeDuplicatesCmd = &cobra.Command{
	Use:   "close-duplicates",
	Short: "Close duplicate issues, keeping one canonical issue",
	Long: `Find every issue matching the given criteria, keep the canonical one,
and close the rest with a comment pointing at it.

Failures on individual issues are logged and skipped; the sweep continues.

Examples:
  issueops close-duplicates --keep 42 --label deployment-failure \
      --reason "superseded by the canonical deployment issue"
  issueops close-duplicates --keep 7 --title-pattern "Security Scan:" \
      --label security --label critical --reason "duplicate scan report"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		reason, _ := cmd.Flags().GetString("reason")
		labels, _ := cmd.Flags().GetStringSlice("label")
		titlePattern, _ := cmd.Flags().GetString("title-pattern")
		titleIsRegex, _ := cmd.Flags().GetBool("regex")
		state, _ := cmd.Flags().GetString("state")
		delay, _ := cmd.Flags().GetDuration("delay")

		store, _, err := newStore()
		if err != nil {
			return err
		}
		closer, err := duplicates.NewCloser(store, duplicates.Config{
			Pacer: duplicates.FixedPacer{Interval: delay},
		}, nil)
		if err != nil {
			return err
		}

		criteria := tracker.SearchCriteria{
			TitlePattern: titlePattern,
			TitleIsRegex: titleIsRegex,
			Labels:       labels,
			State:        tracker.IssueState(state),
		}
		closed, err := closer.CloseDuplicates(context.Background(), criteria, keep, reason)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		if len(closed) == 0 {
			fmt.Println("No duplicates to close")
			return nil
		}
		fmt.Printf("%s %d duplicate(s): %v (canonical: #%d)\n", green("Closed"), len(closed), closed, keep)
		return nil
	},
}

func init() {
	closeDuplicatesCmd.Flags().Int("keep", 0, "issue number of the canonical issue to keep open")
	closeDuplicatesCmd.Flags().String("reason", "duplicate of the canonical issue", "reason recorded in the closing comment")
	closeDuplicatesCmd.Flags().StringSlice("label", nil, "label the duplicates must carry (repeatable)")
	closeDuplicatesCmd.Flags().String("title-pattern", "", "title pattern the duplicates must match")
	closeDuplicatesCmd.Flags().Bool("regex", false, "treat --title-pattern as a regular expression")
	closeDuplicatesCmd.Flags().String("state", "open", "state filter: open, closed, or all")
	closeDuplicatesCmd.Flags().Duration("delay", duplicates.DefaultDelay, "pause between closing candidates")
	_ = closeDuplicatesCmd.MarkFlagRequired("keep")
	_ = closeDuplicatesCmd.MarkFlagRequired("reason")
	rootCmd.AddCommand(closeDuplicatesCmd)
}
