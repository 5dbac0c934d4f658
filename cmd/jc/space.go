package main

import (
	"github.com/spf13/cobra"

	"github.com/ShpetimA/atlassian-cli/internal/confluence"
)

var spaceCmd = &cobra.Command{
	Use:     "space",
	GroupID: "confluence",
	Short:   "Browse Confluence spaces",
}

var spaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List spaces",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		spaceType, _ := cmd.Flags().GetString("type")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		cursor, _ := cmd.Flags().GetString("cursor")

		list, err := confluenceClient().ListSpaces(rootCtx, confluence.SpaceListOptions{
			ListOptions: confluence.ListOptions{Limit: limit, Cursor: cursor},
			Type:        spaceType,
			Status:      status,
		})
		check(err)
		emit(list)
	},
}

var spaceGetCmd = &cobra.Command{
	Use:   "get <id-or-key>",
	Short: "Get a space by numeric id or key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, err := confluenceClient().ResolveSpace(rootCtx, args[0])
		check(err)
		emit(s)
	},
}

func init() {
	spaceListCmd.Flags().String("type", "", "Space type: global|personal")
	spaceListCmd.Flags().String("status", "", "Space status: current|archived")
	spaceListCmd.Flags().IntP("limit", "l", 25, "Max results")
	spaceListCmd.Flags().String("cursor", "", "Cursor from a previous page")

	spaceCmd.AddCommand(spaceListCmd, spaceGetCmd)
	rootCmd.AddCommand(spaceCmd)
}
