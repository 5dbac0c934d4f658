package main

import (
	"github.com/spf13/cobra"

	"github.com/ShpetimA/atlassian-cli/internal/jira"
)

var searchCmd = &cobra.Command{
	Use:     "search [jql]",
	GroupID: "jira",
	Short:   "Search issues with JQL",
	Long: `Search issues with JQL. "jc search <jql>" is shorthand for
"jc search query <jql>".

Examples:
  jc search "assignee = currentUser() AND resolution = Unresolved"
  jc search query "project = PROJ" --fields summary,status --limit 10
  jc search count "project = PROJ AND created >= -7d"`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
			return
		}
		runSearch(cmd, args[0])
	},
}

var searchQueryCmd = &cobra.Command{
	Use:   "query <jql>",
	Short: "Search issues with JQL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSearch(cmd, args[0])
	},
}

var searchCountCmd = &cobra.Command{
	Use:   "count <jql>",
	Short: "Approximate number of issues matching JQL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		count, err := jiraClient().CountIssues(rootCtx, args[0])
		check(err)
		emit(count)
	},
}

func runSearch(cmd *cobra.Command, jql string) {
	limit, _ := cmd.Flags().GetInt("limit")
	page, _ := cmd.Flags().GetInt("page")
	fields, _ := cmd.Flags().GetString("fields")
	token, _ := cmd.Flags().GetString("next-page-token")

	result, err := jiraClient().SearchIssues(rootCtx, jql, jira.SearchOptions{
		StartAt:       startAt(page, limit),
		MaxResults:    limit,
		Fields:        splitList(fields),
		NextPageToken: token,
	})
	check(err)
	emit(result)
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("limit", "l", 50, "Max results")
	cmd.Flags().IntP("page", "p", 1, "Page number (1-based)")
	cmd.Flags().String("fields", "", "Comma-separated fields to return")
	cmd.Flags().String("next-page-token", "", "Continue from a previous result's nextPageToken")
}

func init() {
	addSearchFlags(searchCmd)
	addSearchFlags(searchQueryCmd)

	searchCmd.AddCommand(searchQueryCmd, searchCountCmd)
	rootCmd.AddCommand(searchCmd)
}
