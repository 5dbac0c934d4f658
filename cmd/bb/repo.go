package main

import (
	"github.com/spf13/cobra"

	"github.com/ShpetimA/atlassian-cli/internal/bitbucket"
)

var repoCmd = &cobra.Command{
	Use:     "repo",
	GroupID: "bitbucket",
	Short:   "Repository commands",
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repositories",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")
		name, _ := cmd.Flags().GetString("name")

		client, ws := bbClient()
		result, err := client.ListRepositories(rootCtx, ws, name, bitbucket.PageOptions{Pagelen: limit, Page: page})
		check(err)

		repos := make([]bitbucket.RepoSummary, len(result.Values))
		for i, r := range result.Values {
			repos[i] = bitbucket.RepoSummary{Slug: r.Slug, Name: r.Name, FullName: r.FullName}
		}
		emit(repos)
	},
}

func init() {
	repoListCmd.Flags().IntP("limit", "l", 10, "Number of results (max 100)")
	repoListCmd.Flags().IntP("page", "p", 0, "Page number")
	repoListCmd.Flags().StringP("name", "n", "", "Filter by name")

	repoCmd.AddCommand(repoListCmd)
	rootCmd.AddCommand(repoCmd)
}
