package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ShpetimA/atlassian-cli/internal/config"
	"github.com/ShpetimA/atlassian-cli/internal/debug"
	"github.com/ShpetimA/atlassian-cli/internal/jira"
	"github.com/ShpetimA/atlassian-cli/internal/output"
	"github.com/ShpetimA/atlassian-cli/internal/task"
	"github.com/ShpetimA/atlassian-cli/internal/timeparsing"
	"github.com/ShpetimA/atlassian-cli/internal/ui"
)

var issueCmd = &cobra.Command{
	Use:     "issue",
	GroupID: "jira",
	Short:   "Work with Jira issues",
}

var issueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues via JQL query",
	Long: `List issues matching a JQL query. Without --jql the default project's
issues are listed, most recently updated first.

Examples:
  jc issue list --project PROJ
  jc issue list --jql "status = 'In Progress'" --limit 20 --page 2`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		jql, _ := cmd.Flags().GetString("jql")
		project, _ := cmd.Flags().GetString("project")
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")

		if project == "" {
			project = config.DefaultProject(loadConfig())
		}
		jql = scopeJQL(jql, project)

		result, err := jiraClient().SearchIssues(rootCtx, jql, jira.SearchOptions{
			StartAt:    startAt(page, limit),
			MaxResults: limit,
		})
		check(err)
		emit(result)
	},
}

// scopeJQL restricts jql to project unless it already names a project.
func scopeJQL(jql, project string) string {
	if project != "" && !strings.Contains(strings.ToLower(jql), "project") {
		if jql == "" {
			jql = "project = " + project
		} else {
			jql = fmt.Sprintf("project = %s AND (%s)", project, jql)
		}
	}
	if jql == "" {
		jql = "ORDER BY updated DESC"
	}
	return jql
}

var issueGetCmd = &cobra.Command{
	Use:   "get <key|url>...",
	Short: "Get issue details",
	Long: `Get one or more issues. Several keys are fetched concurrently and printed
as a list.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		expand, _ := cmd.Flags().GetString("expand")
		client := jiraClient()

		keys := make([]string, len(args))
		for i, a := range args {
			k, err := jira.ParseIssueKey(a)
			check(err)
			keys[i] = k
		}

		issues := make([]*jira.Issue, len(keys))
		g, ctx := errgroup.WithContext(rootCtx)
		g.SetLimit(4)
		for i, key := range keys {
			g.Go(func() error {
				issue, err := client.GetIssue(ctx, key, splitList(expand)...)
				if err != nil {
					return err
				}
				issues[i] = issue
				return nil
			})
		}
		check(g.Wait())

		if len(issues) == 1 {
			emit(issues[0])
			return
		}
		emit(issues)
	},
}

var issueViewCmd = &cobra.Command{
	Use:   "view <key|url>",
	Short: "Show an issue with its description rendered as markdown",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		noPager, _ := cmd.Flags().GetBool("no-pager")
		full, _ := cmd.Flags().GetBool("full")
		withComments, _ := cmd.Flags().GetBool("comments")

		key, err := jira.ParseIssueKey(args[0])
		check(err)
		client := jiraClient()
		issue, err := client.GetIssue(rootCtx, key)
		check(err)

		var comments *jira.CommentsResponse
		if withComments {
			comments, err = client.GetComments(rootCtx, key, 0, 50)
			check(err)
		}

		md := issueMarkdown(issue, client.BrowseURL(issue.Key), comments)
		if !full {
			md = ui.TruncateLines(md, ui.DefaultMaxLines, ui.DefaultContextLines)
		}
		check(ui.ToPager(ui.RenderMarkdown(md)+"\n", ui.PagerOptions{NoPager: noPager}))
	},
}

func issueMarkdown(issue *jira.Issue, link string, comments *jira.CommentsResponse) string {
	f := issue.Fields
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", issue.Key, f.Summary)

	var meta []string
	if f.Status != nil {
		meta = append(meta, "**Status:** "+f.Status.Name)
	}
	if f.IssueType != nil {
		meta = append(meta, "**Type:** "+f.IssueType.Name)
	}
	if f.Priority != nil {
		meta = append(meta, "**Priority:** "+f.Priority.Name)
	}
	assignee := "Unassigned"
	if f.Assignee != nil {
		assignee = f.Assignee.DisplayName
	}
	meta = append(meta, "**Assignee:** "+assignee)
	if len(f.Labels) > 0 {
		meta = append(meta, "**Labels:** "+strings.Join(f.Labels, ", "))
	}
	b.WriteString(strings.Join(meta, " | "))
	fmt.Fprintf(&b, "\n\n%s\n", link)

	if desc := jira.ADFToMarkdown(f.Description); desc != "" {
		fmt.Fprintf(&b, "\n## Description\n\n%s\n", desc)
	}
	if comments != nil && len(comments.Comments) > 0 {
		fmt.Fprintf(&b, "\n## Comments (%d)\n", comments.Total)
		for _, c := range comments.Comments {
			author := "unknown"
			if c.Author != nil {
				author = c.Author.DisplayName
			}
			fmt.Fprintf(&b, "\n**%s** (%s)\n\n%s\n", author, c.Created, jira.ADFToMarkdown(c.Body))
		}
	}
	return b.String()
}

var issueCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an issue",
	Long: `Create an issue in the given or default project.

Examples:
  jc issue create --summary "Fix login" --type Bug --priority High
  jc issue create --summary "Subtask" --type Sub-task --parent PROJ-12

A --parent without --project creates the issue in the parent's project.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		summary, _ := cmd.Flags().GetString("summary")
		project, _ := cmd.Flags().GetString("project")
		issueType, _ := cmd.Flags().GetString("type")
		description, _ := cmd.Flags().GetString("description")
		priority, _ := cmd.Flags().GetString("priority")
		labels, _ := cmd.Flags().GetString("labels")
		parent, _ := cmd.Flags().GetString("parent")

		if parent != "" {
			key, err := jira.ParseIssueKey(parent)
			if err != nil {
				FatalError("invalid --parent: %v", err)
			}
			parent = key
			if project == "" {
				project = jira.ProjectOf(key)
			}
		}
		if project == "" {
			project = config.DefaultProject(loadConfig())
		}
		if project == "" {
			FatalErrorWithHint("project is required", "Pass --project or set JIRA_PROJECT / defaults.project")
		}

		fields := map[string]interface{}{
			"project":   map[string]string{"key": project},
			"summary":   summary,
			"issuetype": map[string]string{"name": issueType},
		}
		if description != "" {
			fields["description"] = jira.PlainTextToADF(description)
		}
		if priority != "" {
			fields["priority"] = map[string]string{"name": priority}
		}
		if l := splitList(labels); len(l) > 0 {
			fields["labels"] = l
		}
		if parent != "" {
			fields["parent"] = map[string]string{"key": parent}
		}

		created, err := jiraClient().CreateIssue(rootCtx, fields)
		check(err)
		emit(created)
	},
}

var issueEditCmd = &cobra.Command{
	Use:   "edit <key>",
	Short: "Update fields of an issue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fields := map[string]interface{}{}
		if cmd.Flags().Changed("summary") {
			v, _ := cmd.Flags().GetString("summary")
			fields["summary"] = v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			fields["description"] = jira.PlainTextToADF(v)
		}
		if cmd.Flags().Changed("priority") {
			v, _ := cmd.Flags().GetString("priority")
			fields["priority"] = map[string]string{"name": v}
		}
		if cmd.Flags().Changed("labels") {
			v, _ := cmd.Flags().GetString("labels")
			l := splitList(v)
			if l == nil {
				l = []string{}
			}
			fields["labels"] = l
		}
		if len(fields) == 0 {
			FatalError("nothing to update: pass --summary, --description, --priority or --labels")
		}

		key, err := jira.ParseIssueKey(args[0])
		check(err)
		check(jiraClient().UpdateIssue(rootCtx, key, fields))
		emit(ok(key, "Updated %s", key))
	},
}

var issueDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete an issue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		subtasks, _ := cmd.Flags().GetBool("subtasks")
		key, err := jira.ParseIssueKey(args[0])
		check(err)
		check(jiraClient().DeleteIssue(rootCtx, key, subtasks))
		emit(ok(key, "Deleted %s", key))
	},
}

var issueAssignCmd = &cobra.Command{
	Use:   "assign <key> [user]",
	Short: "Assign an issue (omit user to unassign, 'me' for yourself)",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := jira.ParseIssueKey(args[0])
		check(err)
		client := jiraClient()

		accountID, msg := "", "Unassigned"
		if len(args) == 2 {
			user := args[1]
			if strings.EqualFold(user, "me") {
				me, err := client.Myself(rootCtx)
				check(err)
				accountID = me.AccountID
			} else {
				users, err := client.SearchUsers(rootCtx, user)
				check(err)
				if len(users) == 0 {
					FatalError("user not found: %s", user)
				}
				accountID = users[0].AccountID
			}
			msg = "Assigned to " + user
		}

		check(client.AssignIssue(rootCtx, key, accountID))
		emit(ok(key, "%s", msg))
	},
}

var issueTransitionsCmd = &cobra.Command{
	Use:   "transitions <key>",
	Short: "List available transitions for an issue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := jira.ParseIssueKey(args[0])
		check(err)
		transitions, err := jiraClient().GetTransitions(rootCtx, key)
		check(err)
		emit(transitions)
	},
}

var issueTransitionCmd = &cobra.Command{
	Use:   "transition <key> <status>",
	Short: "Move an issue to a new status",
	Long: `Move an issue through the transition whose id, name or target status
matches <status> (case-insensitive).`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := jira.ParseIssueKey(args[0])
		check(err)
		client := jiraClient()

		transitions, err := client.GetTransitions(rootCtx, key)
		check(err)
		t, found := jira.FindTransition(transitions, args[1])
		if !found {
			names := make([]string, len(transitions))
			for i, t := range transitions {
				names[i] = t.Name
			}
			FatalError("transition not found: %s. Available: %s", args[1], strings.Join(names, ", "))
		}

		check(client.TransitionIssue(rootCtx, key, t.ID))
		target := t.Name
		if t.To != nil {
			target = t.To.Name
		}
		emit(ok(key, "Transitioned to %s", target))
	},
}

var issueCommentsCmd = &cobra.Command{
	Use:   "comments <key>",
	Short: "List comments on an issue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		key, err := jira.ParseIssueKey(args[0])
		check(err)
		resp, err := jiraClient().GetComments(rootCtx, key, 0, limit)
		check(err)
		emit(resp)
	},
}

var issueCommentCmd = &cobra.Command{
	Use:   "comment <key> <text>",
	Short: "Add a comment to an issue",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := jira.ParseIssueKey(args[0])
		check(err)
		c, err := jiraClient().AddComment(rootCtx, key, args[1])
		check(err)
		emit(c)
	},
}

var issueWorklogsCmd = &cobra.Command{
	Use:   "worklogs <key>",
	Short: "List worklogs on an issue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := jira.ParseIssueKey(args[0])
		check(err)
		resp, err := jiraClient().GetWorklogs(rootCtx, key)
		check(err)
		emit(resp)
	},
}

var issueWorklogCmd = &cobra.Command{
	Use:   "worklog <key>",
	Short: "Log work on an issue",
	Long: `Log work on an issue. --started accepts RFC3339, YYYY-MM-DD, compact
offsets such as -2h, or phrases such as "yesterday at 9am".

Examples:
  jc issue worklog PROJ-1 --time "1h 30m" --comment "Review"
  jc issue worklog PROJ-1 -t 2h -s "yesterday at 14:00"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		spent, _ := cmd.Flags().GetString("time")
		comment, _ := cmd.Flags().GetString("comment")
		startedStr, _ := cmd.Flags().GetString("started")

		in := jira.WorklogInput{TimeSpent: spent, Comment: comment}
		if startedStr != "" {
			started, err := timeparsing.ParseRelativeTime(startedStr, time.Now())
			check(err)
			in.Started = started
		}

		key, err := jira.ParseIssueKey(args[0])
		check(err)
		w, err := jiraClient().AddWorklog(rootCtx, key, in)
		check(err)
		emit(w)
	},
}

var issueWorklogDeleteCmd = &cobra.Command{
	Use:   "worklog-delete <key> <worklogId>",
	Short: "Delete a worklog",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := jira.ParseIssueKey(args[0])
		check(err)
		check(jiraClient().DeleteWorklog(rootCtx, key, args[1]))
		emit(ok(key, "Deleted worklog %s", args[1]))
	},
}

// archiveSubmission is printed when an archive task is not waited for.
type archiveSubmission struct {
	TaskID  string      `json:"taskId"`
	Status  task.Status `json:"status"`
	Message string      `json:"message"`
}

func (s *archiveSubmission) Plain() string {
	return fmt.Sprintf("Task: %s\nStatus: %s\n%s", s.TaskID, s.Status, s.Message)
}

var issueArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive issues",
	Long: `Archive issues by key or by JQL. Archiving by key completes immediately;
archiving by JQL starts a task, which --wait polls until it finishes.

Examples:
  jc issue archive --issues PROJ-1,PROJ-2
  jc issue archive --jql "project = OLD" --wait --timeout 10m`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		jql, _ := cmd.Flags().GetString("jql")
		keys, _ := cmd.Flags().GetString("issues")
		wait, _ := cmd.Flags().GetBool("wait")
		interval, _ := cmd.Flags().GetDuration("interval")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if jql == "" && keys == "" {
			FatalError("either --jql or --issues is required")
		}
		client := jiraClient()

		if jql == "" {
			result, err := client.ArchiveIssues(rootCtx, splitList(keys))
			check(err)
			emit(result)
			return
		}

		taskID, err := client.ArchiveIssuesByJQL(rootCtx, jql)
		check(err)
		if !wait {
			emit(&archiveSubmission{
				TaskID:  taskID,
				Status:  task.StatusEnqueued,
				Message: "Use 'jc task get " + taskID + "' to check status",
			})
			return
		}
		emit(waitForTask(client, taskID, interval, timeout))
	},
}

// waitForTask polls a task to completion, reporting progress on stderr
// unless the output format is json.
func waitForTask(client *jira.Client, id string, interval, timeout time.Duration) *task.Task {
	showProgress := currentFormat() != output.JSON
	t, err := task.Poll(rootCtx, client, id,
		task.WithInterval(interval),
		task.WithMaxWait(timeout),
		task.WithProgress(func(t *task.Task) {
			if showProgress {
				debug.PrintNormal("\r%s", t.ProgressLine())
			}
		}),
	)
	if showProgress {
		if t != nil && ui.IsStderrTerminal() {
			debug.PrintNormal("  %s", ui.RenderStatus(string(t.Status)))
		}
		debug.PrintNormal("\n")
	}
	check(err)
	return t
}

func init() {
	issueListCmd.Flags().StringP("jql", "j", "", "JQL query string")
	issueListCmd.Flags().String("project", "", "Filter by project key (default: $JIRA_PROJECT)")
	issueListCmd.Flags().IntP("limit", "l", 50, "Max results")
	issueListCmd.Flags().IntP("page", "p", 1, "Page number (1-based)")

	issueGetCmd.Flags().String("expand", "", "Comma-separated fields to expand")

	issueViewCmd.Flags().Bool("no-pager", false, "Print directly instead of using a pager")
	issueViewCmd.Flags().Bool("full", false, "Do not truncate long descriptions")
	issueViewCmd.Flags().Bool("comments", false, "Include comments")

	issueCreateCmd.Flags().String("summary", "", "Issue summary (required)")
	issueCreateCmd.Flags().String("project", "", "Project key (default: $JIRA_PROJECT)")
	issueCreateCmd.Flags().String("type", "Task", "Issue type")
	issueCreateCmd.Flags().String("description", "", "Issue description")
	issueCreateCmd.Flags().String("priority", "", "Priority name")
	issueCreateCmd.Flags().String("labels", "", "Comma-separated labels")
	issueCreateCmd.Flags().String("parent", "", "Parent issue key")
	_ = issueCreateCmd.MarkFlagRequired("summary")

	issueEditCmd.Flags().String("summary", "", "New summary")
	issueEditCmd.Flags().String("description", "", "New description")
	issueEditCmd.Flags().String("priority", "", "New priority")
	issueEditCmd.Flags().String("labels", "", "New labels (comma-separated, empty clears)")

	issueDeleteCmd.Flags().Bool("subtasks", false, "Also delete subtasks")

	issueCommentsCmd.Flags().IntP("limit", "l", 50, "Max results")

	issueWorklogCmd.Flags().StringP("time", "t", "", "Time spent (e.g. 1h, 30m, 1h 30m, 1d)")
	issueWorklogCmd.Flags().StringP("comment", "c", "", "Worklog comment")
	issueWorklogCmd.Flags().StringP("started", "s", "", "Start time (default: now)")
	_ = issueWorklogCmd.MarkFlagRequired("time")

	issueArchiveCmd.Flags().StringP("jql", "j", "", "JQL query selecting issues to archive")
	issueArchiveCmd.Flags().String("issues", "", "Comma-separated issue keys to archive")
	issueArchiveCmd.Flags().Bool("wait", false, "Wait for the archive task to finish")
	issueArchiveCmd.Flags().Duration("interval", task.DefaultInterval, "Poll interval with --wait")
	issueArchiveCmd.Flags().Duration("timeout", task.DefaultMaxWait, "Give up waiting after this long")

	issueCmd.AddCommand(issueListCmd, issueGetCmd, issueViewCmd, issueCreateCmd, issueEditCmd,
		issueDeleteCmd, issueAssignCmd, issueTransitionsCmd, issueTransitionCmd, issueCommentsCmd,
		issueCommentCmd, issueWorklogsCmd, issueWorklogCmd, issueWorklogDeleteCmd, issueArchiveCmd)
	rootCmd.AddCommand(issueCmd)
}
