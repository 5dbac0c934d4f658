package main

import (
	"github.com/spf13/cobra"

	"github.com/ShpetimA/atlassian-cli/internal/jira"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	GroupID: "jira",
	Short:   "Browse Jira projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		query, _ := cmd.Flags().GetString("query")
		typeKey, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")

		result, err := jiraClient().ListProjects(rootCtx, jira.ProjectListOptions{
			Query:      query,
			TypeKey:    typeKey,
			StartAt:    startAt(page, limit),
			MaxResults: limit,
		})
		check(err)
		emit(result)
	},
}

var projectGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get project details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := jiraClient().GetProject(rootCtx, args[0])
		check(err)
		emit(p)
	},
}

func init() {
	projectListCmd.Flags().StringP("query", "q", "", "Search by name or key")
	projectListCmd.Flags().String("type", "", "Project type: software|business|service_desk")
	projectListCmd.Flags().IntP("limit", "l", 50, "Max results")
	projectListCmd.Flags().IntP("page", "p", 1, "Page number (1-based)")

	projectCmd.AddCommand(projectListCmd, projectGetCmd)
	rootCmd.AddCommand(projectCmd)
}
