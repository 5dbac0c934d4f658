package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShpetimA/atlassian-cli/internal/bitbucket"
	"github.com/ShpetimA/atlassian-cli/internal/ui"
)

var prCmd = &cobra.Command{
	Use:     "pr",
	GroupID: "bitbucket",
	Short:   "Pull request commands",
}

var prListCmd = &cobra.Command{
	Use:   "list <repo>",
	Short: "List pull requests",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		state, _ := cmd.Flags().GetString("state")
		client, ws := bbClient()
		result, err := client.ListPullRequests(rootCtx, ws, args[0], state, pageOptions(cmd))
		check(err)
		emit(result.Values)
	},
}

var prGetCmd = &cobra.Command{
	Use:   "get <repo> <id>",
	Short: "Get pull request details",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		fields, _ := cmd.Flags().GetString("fields")
		id := intArg(args[1], "pull request id")
		client, ws := bbClient()
		pr, err := client.GetPullRequest(rootCtx, ws, args[0], id)
		check(err)
		if fields == "" {
			emit(pr)
			return
		}
		filtered, err := selectFields(pr, splitList(fields))
		check(err)
		emit(filtered)
	},
}

var prDiffCmd = &cobra.Command{
	Use:   "diff <repo> <id>",
	Short: "Get pull request diff",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		lines, _ := cmd.Flags().GetInt("lines")
		statOnly, _ := cmd.Flags().GetBool("stat-only")
		noPager, _ := cmd.Flags().GetBool("no-pager")
		id := intArg(args[1], "pull request id")
		client, ws := bbClient()

		if statOnly {
			result, err := client.GetPullRequestDiffStat(rootCtx, ws, args[0], id, bitbucket.PageOptions{Pagelen: bitbucket.MaxPagelen})
			check(err)
			emit(result.Values)
			return
		}

		diff, err := client.GetPullRequestDiff(rootCtx, ws, args[0], id)
		check(err)
		if file != "" {
			diff = bitbucket.FilterDiffByFile(diff, file)
		}
		if lines > 0 {
			diff = bitbucket.LimitLines(diff, lines)
		}

		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(diff), 0o644); err != nil { // #nosec G306 -- user-requested output file
				FatalError("write %s: %v", outputFile, err)
			}
			return
		}
		check(ui.ToPager(strings.TrimRight(diff, "\n")+"\n", ui.PagerOptions{NoPager: noPager}))
	},
}

var prDiffStatCmd = &cobra.Command{
	Use:   "diffstat <repo> <id>",
	Short: "Show files changed by a pull request",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id := intArg(args[1], "pull request id")
		client, ws := bbClient()
		result, err := client.GetPullRequestDiffStat(rootCtx, ws, args[0], id, pageOptions(cmd))
		check(err)
		emit(result.Values)
	},
}

var prCommentsCmd = &cobra.Command{
	Use:   "comments <repo> <id>",
	Short: "Get pull request comments",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		inlineOnly, _ := cmd.Flags().GetBool("inline-only")
		id := intArg(args[1], "pull request id")
		client, ws := bbClient()
		result, err := client.ListComments(rootCtx, ws, args[0], id, pageOptions(cmd))
		check(err)

		comments := result.Values
		if inlineOnly {
			comments = filterInline(comments)
		}
		emit(comments)
	},
}

var prCommentCmd = &cobra.Command{
	Use:   "comment <repo> <id> <content>",
	Short: "Add comment to pull request",
	Long: `Add a comment to a pull request.

With --file and --line the comment is attached inline to that line of
the new version of the file.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		addComment(cmd, args, false)
	},
}

var prAddPendingCmd = &cobra.Command{
	Use:   "add-pending <repo> <id> <content>",
	Short: "Add a pending (draft) comment to pull request",
	Long: `Add a pending comment, visible only to you until the review is
published. Use --line for added or context lines and --from for
deleted lines.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		addComment(cmd, args, true)
	},
}

func addComment(cmd *cobra.Command, args []string, pending bool) {
	file, _ := cmd.Flags().GetString("file")
	id := intArg(args[1], "pull request id")

	in := bitbucket.CommentInput{Content: args[2]}
	inline, err := inlineFromFlags(cmd, file, pending)
	if err != nil {
		FatalError("%v", err)
	}
	in.Inline = inline
	if pending {
		in.Pending = &pending
	}

	client, ws := bbClient()
	c, err := client.AddComment(rootCtx, ws, args[0], id, in)
	check(err)
	emit(c)
}

// inlineFromFlags builds the inline anchor. General comments need both
// --file and --line; pending comments may anchor on --from instead.
func inlineFromFlags(cmd *cobra.Command, file string, pending bool) (*bitbucket.Inline, error) {
	line, _ := cmd.Flags().GetInt("line")
	from := 0
	if cmd.Flags().Lookup("from") != nil {
		from, _ = cmd.Flags().GetInt("from")
	}
	if file == "" {
		if line > 0 || from > 0 {
			return nil, fmt.Errorf("--line and --from require --file")
		}
		return nil, nil
	}
	inline := &bitbucket.Inline{Path: file}
	if line > 0 {
		inline.To = &line
	}
	if from > 0 {
		inline.From = &from
	}
	if !pending && inline.To == nil {
		return nil, fmt.Errorf("--file requires --line")
	}
	return inline, nil
}

var prCommentEditCmd = &cobra.Command{
	Use:     "comment-edit <repo> <pr-id> <comment-id> <content>",
	Aliases: []string{"update-comment"},
	Short:   "Update an existing comment",
	Args:    cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		id := intArg(args[1], "pull request id")
		commentID := intArg(args[2], "comment id")
		client, ws := bbClient()
		c, err := client.UpdateComment(rootCtx, ws, args[0], id, commentID, args[3], nil)
		check(err)
		emit(c)
	},
}

var prCommentDeleteCmd = &cobra.Command{
	Use:     "comment-delete <repo> <pr-id> <comment-id>",
	Aliases: []string{"delete-comment"},
	Short:   "Delete a comment",
	Args:    cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		id := intArg(args[1], "pull request id")
		commentID := intArg(args[2], "comment id")
		client, ws := bbClient()
		check(client.DeleteComment(rootCtx, ws, args[0], id, commentID))
		emit(&actionResult{Success: true, ID: args[2], Message: fmt.Sprintf("Comment %d deleted", commentID)})
	},
}

var prResolveCmd = &cobra.Command{
	Use:     "resolve <repo> <pr-id> <comment-id>",
	Aliases: []string{"resolve-comment"},
	Short:   "Resolve a comment thread",
	Args:    cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		setResolved(args, true)
	},
}

var prReopenCmd = &cobra.Command{
	Use:     "reopen <repo> <pr-id> <comment-id>",
	Aliases: []string{"reopen-comment"},
	Short:   "Reopen a resolved comment thread",
	Args:    cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		setResolved(args, false)
	},
}

func setResolved(args []string, resolved bool) {
	id := intArg(args[1], "pull request id")
	commentID := intArg(args[2], "comment id")
	client, ws := bbClient()
	c, err := client.ResolveComment(rootCtx, ws, args[0], id, commentID, resolved)
	check(err)
	emit(c)
}

var prActivityCmd = &cobra.Command{
	Use:   "activity <repo> <id>",
	Short: "Get pull request activity",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		kind, _ := cmd.Flags().GetString("type")
		switch kind {
		case "", "approval", "comment", "update":
		default:
			FatalError("invalid --type %q: use approval, comment or update", kind)
		}
		id := intArg(args[1], "pull request id")
		client, ws := bbClient()
		result, err := client.ListActivity(rootCtx, ws, args[0], id, pageOptions(cmd))
		check(err)
		emit(filterActivity(result.Values, kind))
	},
}

var prCommitsCmd = &cobra.Command{
	Use:   "commits <repo> <id>",
	Short: "Get pull request commits",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id := intArg(args[1], "pull request id")
		client, ws := bbClient()
		result, err := client.ListCommits(rootCtx, ws, args[0], id, pageOptions(cmd))
		check(err)
		emit(result.Values)
	},
}

func filterInline(comments []bitbucket.Comment) []bitbucket.Comment {
	out := make([]bitbucket.Comment, 0, len(comments))
	for _, c := range comments {
		if c.Inline != nil {
			out = append(out, c)
		}
	}
	return out
}

func filterActivity(acts []bitbucket.Activity, kind string) []bitbucket.Activity {
	if kind == "" {
		return acts
	}
	out := make([]bitbucket.Activity, 0, len(acts))
	for i := range acts {
		if acts[i].Kind() == kind {
			out = append(out, acts[i])
		}
	}
	return out
}

// selectFields keeps the named top-level JSON fields of v, in the order
// given. Unknown names are skipped.
func selectFields(v interface{}, fields []string) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteByte('{')
	n := 0
	for _, f := range fields {
		raw, ok := all[f]
		if !ok {
			continue
		}
		if n > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(f)
		b.Write(key)
		b.WriteByte(':')
		b.Write(raw)
		n++
	}
	b.WriteByte('}')
	return json.RawMessage(b.Bytes()), nil
}

func pageOptions(cmd *cobra.Command) bitbucket.PageOptions {
	limit, _ := cmd.Flags().GetInt("limit")
	var page int
	if cmd.Flags().Lookup("page") != nil {
		page, _ = cmd.Flags().GetInt("page")
	}
	return bitbucket.PageOptions{Pagelen: limit, Page: page}
}

func intArg(s, what string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		FatalError("invalid %s %q", what, s)
	}
	return n
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// actionResult reports the outcome of a command that has no response body.
type actionResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

func (r *actionResult) Plain() string { return r.Message }

func init() {
	prListCmd.Flags().StringP("state", "s", "OPEN", "State: OPEN, MERGED, DECLINED or SUPERSEDED")
	prListCmd.Flags().IntP("limit", "l", 10, "Number of results (max 100)")
	prListCmd.Flags().IntP("page", "p", 0, "Page number")

	prGetCmd.Flags().String("fields", "", "Comma-separated fields to show")

	prDiffCmd.Flags().String("file", "", "Filter diff to a specific file")
	prDiffCmd.Flags().IntP("lines", "l", 0, "Limit output to N lines")
	prDiffCmd.Flags().Bool("stat-only", false, "Show only file change statistics")
	prDiffCmd.Flags().Bool("no-pager", false, "Disable pager output")

	prDiffStatCmd.Flags().IntP("limit", "l", bitbucket.MaxPagelen, "Number of files (max 100)")
	prDiffStatCmd.Flags().IntP("page", "p", 0, "Page number")

	prCommentsCmd.Flags().IntP("limit", "l", 20, "Number of results (max 100)")
	prCommentsCmd.Flags().IntP("page", "p", 0, "Page number")
	prCommentsCmd.Flags().Bool("inline-only", false, "Show only inline comments")

	prCommentCmd.Flags().String("file", "", "File path for inline comment")
	prCommentCmd.Flags().IntP("line", "l", 0, "Line number for inline comment")

	prAddPendingCmd.Flags().String("file", "", "File path for inline comment")
	prAddPendingCmd.Flags().IntP("line", "l", 0, "Line number in the new file")
	prAddPendingCmd.Flags().Int("from", 0, "Line number in the old file (deletions)")

	prActivityCmd.Flags().IntP("limit", "l", 20, "Number of results (max 100)")
	prActivityCmd.Flags().IntP("page", "p", 0, "Page number")
	prActivityCmd.Flags().StringP("type", "t", "", "Filter by type (approval|comment|update)")

	prCommitsCmd.Flags().IntP("limit", "l", 20, "Number of results (max 100)")

	prCmd.AddCommand(prListCmd, prGetCmd, prDiffCmd, prDiffStatCmd,
		prCommentsCmd, prCommentCmd, prAddPendingCmd, prCommentEditCmd,
		prCommentDeleteCmd, prResolveCmd, prReopenCmd, prActivityCmd, prCommitsCmd)
	rootCmd.AddCommand(prCmd)
}
