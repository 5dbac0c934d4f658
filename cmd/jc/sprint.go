package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShpetimA/atlassian-cli/internal/jira"
	"github.com/ShpetimA/atlassian-cli/internal/timeparsing"
)

var sprintCmd = &cobra.Command{
	Use:     "sprint",
	GroupID: "agile",
	Short:   "Manage sprints",
	Long: `Manage sprints. Date flags accept RFC3339, YYYY-MM-DD, compact offsets
such as +2w, or phrases such as "next monday".`,
}

var sprintListCmd = &cobra.Command{
	Use:   "list <board-id>",
	Short: "List sprints of a board",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		state, _ := cmd.Flags().GetString("state")
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")

		result, err := agileClient().ListSprints(rootCtx, intArg(args[0], "board id"), state, startAt(page, limit), limit)
		check(err)
		emit(result)
	},
}

var sprintGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get sprint details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, err := agileClient().GetSprint(rootCtx, intArg(args[0], "sprint id"))
		check(err)
		emit(s)
	},
}

var sprintCreateCmd = &cobra.Command{
	Use:   "create <board-id>",
	Short: "Create a future sprint",
	Long: `Create a future sprint on a board.

Examples:
  jc sprint create 12 --name "Sprint 8" --start-date "next monday" --end-date +3w`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		goal, _ := cmd.Flags().GetString("goal")
		now := time.Now()

		in := jira.SprintInput{
			Name:      name,
			BoardID:   intArg(args[0], "board id"),
			Goal:      goal,
			StartDate: dateFlag(cmd, "start-date", now),
			EndDate:   dateFlag(cmd, "end-date", now),
		}
		s, err := agileClient().CreateSprint(rootCtx, in)
		check(err)
		emit(s)
	},
}

var sprintStartCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Start a sprint",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		now := time.Now()
		start := dateFlag(cmd, "start-date", now)
		if start.IsZero() {
			start = now
		}
		end := dateFlag(cmd, "end-date", now)
		if end.IsZero() {
			end = start.AddDate(0, 0, 14)
		}
		if !end.After(start) {
			FatalError("--end-date must be after --start-date")
		}
		s, err := agileClient().StartSprint(rootCtx, intArg(args[0], "sprint id"), start, end)
		check(err)
		emit(s)
	},
}

var sprintCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a sprint",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		completed := dateFlag(cmd, "complete-date", time.Now())
		s, err := agileClient().CloseSprint(rootCtx, intArg(args[0], "sprint id"), completed)
		check(err)
		emit(s)
	},
}

var sprintMoveCmd = &cobra.Command{
	Use:   "move <id> <key>...",
	Short: "Move issues into a sprint",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id := intArg(args[0], "sprint id")
		keys := make([]string, 0, len(args)-1)
		for _, a := range args[1:] {
			k, err := jira.ParseIssueKey(a)
			check(err)
			keys = append(keys, k)
		}
		if len(keys) > 50 {
			FatalError("at most 50 issues can be moved at once, got %d", len(keys))
		}
		check(agileClient().MoveIssuesToSprint(rootCtx, id, keys))
		emit(&actionResult{Success: true, ID: args[0], Message: "Moved " + strings.Join(keys, ", ") + " to sprint " + args[0]})
	},
}

// dateFlag parses a date flag relative to now. Unset flags yield the zero time.
func dateFlag(cmd *cobra.Command, name string, now time.Time) time.Time {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return time.Time{}
	}
	t, err := timeparsing.ParseRelativeTime(v, now)
	if err != nil {
		FatalError("--%s: %v", name, err)
	}
	return t
}

func init() {
	sprintListCmd.Flags().String("state", "", "Filter by state: future|active|closed")
	sprintListCmd.Flags().IntP("limit", "l", 50, "Max results")
	sprintListCmd.Flags().IntP("page", "p", 1, "Page number (1-based)")

	sprintCreateCmd.Flags().String("name", "", "Sprint name (required)")
	sprintCreateCmd.Flags().String("start-date", "", "Start date")
	sprintCreateCmd.Flags().String("end-date", "", "End date")
	sprintCreateCmd.Flags().String("goal", "", "Sprint goal")
	_ = sprintCreateCmd.MarkFlagRequired("name")

	sprintStartCmd.Flags().String("start-date", "", "Start date (default: now)")
	sprintStartCmd.Flags().String("end-date", "", "End date (default: start + 2w)")

	sprintCloseCmd.Flags().String("complete-date", "", "Completion date (default: now)")

	sprintCmd.AddCommand(sprintListCmd, sprintGetCmd, sprintCreateCmd, sprintStartCmd, sprintCloseCmd, sprintMoveCmd)
	rootCmd.AddCommand(sprintCmd)
}
