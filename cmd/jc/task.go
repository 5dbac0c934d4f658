package main

import (
	"github.com/spf13/cobra"

	"github.com/ShpetimA/atlassian-cli/internal/task"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	GroupID: "jira",
	Short:   "Inspect asynchronous Jira tasks",
}

var taskGetCmd = &cobra.Command{
	Use:   "get <taskId>",
	Short: "Get async task status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t, err := jiraClient().GetTask(rootCtx, args[0])
		check(err)
		emit(t)
	},
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel <taskId>",
	Short: "Cancel a running async task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		check(jiraClient().CancelTask(rootCtx, args[0]))
		emit(&actionResult{Success: true, ID: args[0], Message: "Cancel requested"})
	},
}

var taskWaitCmd = &cobra.Command{
	Use:   "wait <taskId>",
	Short: "Poll a task until it finishes",
	Long: `Poll a task until it reaches COMPLETE, FAILED, CANCELLED or DEAD.
Progress is reported on stderr unless the output format is json. Exits
non-zero when --timeout elapses first.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		interval, _ := cmd.Flags().GetDuration("interval")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		emit(waitForTask(jiraClient(), args[0], interval, timeout))
	},
}

func init() {
	taskWaitCmd.Flags().Duration("interval", task.DefaultInterval, "Poll interval")
	taskWaitCmd.Flags().Duration("timeout", task.DefaultMaxWait, "Give up after this long")

	taskCmd.AddCommand(taskGetCmd, taskCancelCmd, taskWaitCmd)
	rootCmd.AddCommand(taskCmd)
}
