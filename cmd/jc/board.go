package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ShpetimA/atlassian-cli/internal/jira"
)

var boardCmd = &cobra.Command{
	Use:     "board",
	GroupID: "agile",
	Short:   "Browse agile boards",
}

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List boards",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		boardType, _ := cmd.Flags().GetString("type")
		name, _ := cmd.Flags().GetString("name")
		project, _ := cmd.Flags().GetString("project")
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")

		result, err := agileClient().ListBoards(rootCtx, jira.BoardListOptions{
			Type:           boardType,
			Name:           name,
			ProjectKeyOrID: project,
			StartAt:        startAt(page, limit),
			MaxResults:     limit,
		})
		check(err)
		emit(result)
	},
}

var boardGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get board details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		b, err := agileClient().GetBoard(rootCtx, intArg(args[0], "board id"))
		check(err)
		emit(b)
	},
}

// intArg parses a numeric argument or exits naming what was expected.
func intArg(s, what string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		FatalError("invalid %s %q: must be a positive number", what, s)
	}
	return n
}

func init() {
	boardListCmd.Flags().String("type", "", "Board type: scrum|kanban|simple")
	boardListCmd.Flags().String("name", "", "Filter by board name")
	boardListCmd.Flags().String("project", "", "Filter by project key or id")
	boardListCmd.Flags().IntP("limit", "l", 50, "Max results")
	boardListCmd.Flags().IntP("page", "p", 1, "Page number (1-based)")

	boardCmd.AddCommand(boardListCmd, boardGetCmd)
	rootCmd.AddCommand(boardCmd)
}
