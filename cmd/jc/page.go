package main

import (
	"html"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShpetimA/atlassian-cli/internal/config"
	"github.com/ShpetimA/atlassian-cli/internal/confluence"
)

var pageCmd = &cobra.Command{
	Use:     "page",
	GroupID: "confluence",
	Short:   "Manage Confluence pages",
	Long: `Manage Confluence pages. Bodies use the storage format (XHTML).

Examples:
  jc page list --space DOCS --limit 10
  jc page get 123456 --body storage
  jc page create --space DOCS --title "Runbook" --body-file runbook.html
  jc page update 123456 --body-file runbook.html --message "Add rollback"`,
}

var pageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		status, _ := cmd.Flags().GetString("status")
		sort, _ := cmd.Flags().GetString("sort")
		title, _ := cmd.Flags().GetString("title")
		limit, _ := cmd.Flags().GetInt("limit")
		cursor, _ := cmd.Flags().GetString("cursor")

		client := confluenceClient()
		opts := confluence.PageListOptions{
			ListOptions: confluence.ListOptions{Limit: limit, Cursor: cursor},
			Status:      status,
			Sort:        sort,
			Title:       title,
		}
		if ref := spaceRef(cmd); ref != "" {
			s, err := client.ResolveSpace(rootCtx, ref)
			check(err)
			opts.SpaceID = s.ID
		}
		list, err := client.ListPages(rootCtx, opts)
		check(err)
		emit(list)
	},
}

// spaceRef returns --space, falling back to CONFLUENCE_SPACE and
// defaults.space.
func spaceRef(cmd *cobra.Command) string {
	ref, _ := cmd.Flags().GetString("space")
	if ref == "" {
		ref = config.DefaultSpace(loadConfig())
	}
	return ref
}

var pageGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		body, _ := cmd.Flags().GetString("body")
		p, err := confluenceClient().GetPage(rootCtx, args[0], body)
		check(err)
		emit(p)
	},
}

// pageBody reads --body-file when given, else --body.
func pageBody(cmd *cobra.Command) string {
	body, _ := cmd.Flags().GetString("body")
	if path, _ := cmd.Flags().GetString("body-file"); path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-supplied input file
		if err != nil {
			FatalError("read body file: %v", err)
		}
		body = string(data)
	}
	return body
}

var pageCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a page",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		title, _ := cmd.Flags().GetString("title")
		parent, _ := cmd.Flags().GetString("parent")
		status, _ := cmd.Flags().GetString("status")

		ref := spaceRef(cmd)
		if ref == "" {
			FatalErrorWithHint("space is required", "Pass --space or set CONFLUENCE_SPACE / defaults.space")
		}
		client := confluenceClient()
		s, err := client.ResolveSpace(rootCtx, ref)
		check(err)

		p, err := client.CreatePage(rootCtx, confluence.PageInput{
			SpaceID:  s.ID,
			Title:    title,
			ParentID: parent,
			Status:   status,
			Body:     pageBody(cmd),
		})
		check(err)
		emit(p)
	},
}

var pageUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a page, bumping its version",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		title, _ := cmd.Flags().GetString("title")
		status, _ := cmd.Flags().GetString("status")
		message, _ := cmd.Flags().GetString("message")

		p, err := confluenceClient().UpdatePage(rootCtx, args[0], confluence.PageInput{
			Title:          title,
			Status:         status,
			Body:           pageBody(cmd),
			VersionMessage: message,
		})
		check(err)
		emit(p)
	},
}

var pageDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		check(confluenceClient().DeletePage(rootCtx, args[0]))
		emit(&actionResult{Success: true, ID: args[0], Message: "Deleted page " + args[0]})
	},
}

var pageChildrenCmd = &cobra.Command{
	Use:   "children <id>",
	Short: "List child pages",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		list, err := confluenceClient().GetPageChildren(rootCtx, args[0], listOptions(cmd))
		check(err)
		emit(list)
	},
}

var pageCommentsCmd = &cobra.Command{
	Use:   "comments <id>",
	Short: "List footer comments of a page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		list, err := confluenceClient().GetPageComments(rootCtx, args[0], listOptions(cmd))
		check(err)
		emit(list)
	},
}

var pageCommentCmd = &cobra.Command{
	Use:   "comment <id> <text>",
	Short: "Add a footer comment to a page",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := confluenceClient().AddPageComment(rootCtx, args[0], "<p>"+html.EscapeString(args[1])+"</p>")
		check(err)
		emit(c)
	},
}

var pageLabelsCmd = &cobra.Command{
	Use:   "labels <id>",
	Short: "List labels of a page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		list, err := confluenceClient().GetPageLabels(rootCtx, args[0], listOptions(cmd))
		check(err)
		emit(list)
	},
}

var pageAddLabelCmd = &cobra.Command{
	Use:   "add-label <id> <label>",
	Short: "Add a label to a page",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		l, err := confluenceClient().AddPageLabel(rootCtx, args[0], args[1])
		check(err)
		emit(l)
	},
}

func listOptions(cmd *cobra.Command) confluence.ListOptions {
	limit, _ := cmd.Flags().GetInt("limit")
	cursor, _ := cmd.Flags().GetString("cursor")
	return confluence.ListOptions{Limit: limit, Cursor: cursor}
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("limit", "l", 25, "Max results")
	cmd.Flags().String("cursor", "", "Cursor from a previous page")
}

func addBodyFlags(cmd *cobra.Command) {
	cmd.Flags().String("body", "", "Page body (storage format)")
	cmd.Flags().String("body-file", "", "Read the body from a file")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
}

func init() {
	pageListCmd.Flags().String("space", "", "Space id or key (default: $CONFLUENCE_SPACE)")
	pageListCmd.Flags().String("status", "", "Page status: current|draft|trashed|archived")
	pageListCmd.Flags().String("sort", "", "Sort: id|title|created-date|modified-date")
	pageListCmd.Flags().String("title", "", "Exact page title")
	addListFlags(pageListCmd)

	pageGetCmd.Flags().String("body", "", "Body format: storage|atlas_doc_format|view")

	pageCreateCmd.Flags().String("space", "", "Space id or key (default: $CONFLUENCE_SPACE)")
	pageCreateCmd.Flags().String("title", "", "Page title (required)")
	pageCreateCmd.Flags().String("parent", "", "Parent page id")
	pageCreateCmd.Flags().String("status", "current", "Page status: current|draft")
	addBodyFlags(pageCreateCmd)
	_ = pageCreateCmd.MarkFlagRequired("title")

	pageUpdateCmd.Flags().String("title", "", "Page title (default: unchanged)")
	pageUpdateCmd.Flags().String("status", "current", "Page status: current|draft")
	pageUpdateCmd.Flags().String("message", "", "Version message")
	addBodyFlags(pageUpdateCmd)

	addListFlags(pageChildrenCmd)
	addListFlags(pageCommentsCmd)
	addListFlags(pageLabelsCmd)

	pageCmd.AddCommand(pageListCmd, pageGetCmd, pageCreateCmd, pageUpdateCmd, pageDeleteCmd,
		pageChildrenCmd, pageCommentsCmd, pageCommentCmd, pageLabelsCmd, pageAddLabelCmd)
	rootCmd.AddCommand(pageCmd)
}
