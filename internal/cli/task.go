package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"trialwatch.app/engine/internal/taskview"
	"trialwatch.app/engine/internal/viewcache"
)

func newTaskCommand(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Work with task threads",
	}
	cmd.AddCommand(newTaskViewCommand(opts))
	return cmd
}

func newTaskViewCommand(opts Options) *cobra.Command {
	var (
		notificationID int64
		comment        string
	)

	cmd := &cobra.Command{
		Use:   "view TASK_ID",
		Short: "Show a task's comment thread the way the task page loads it",
		Long: `View opens the task thread. With --notification the notification is
marked read first, as when a user follows it from their inbox. With --comment
the comment is posted once the thread has loaded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			api, err := opts.API()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			session := taskview.Open(ctx, api, viewcache.NewMemory(), taskview.Options{
				TaskID:         taskID,
				NotificationID: notificationID,
				Policy:         opts.Policy,
			})
			session.Wait()

			snap := session.Snapshot()
			if snap.State == taskview.StateFailed {
				return fmt.Errorf("loading comments: %s", snap.LastError)
			}

			if comment != "" {
				if _, err := session.PostComment(ctx, comment); err != nil {
					if errors.Is(err, taskview.ErrNotReady) {
						return fmt.Errorf("thread is %s, not ready for comments", snap.State)
					}
					return err
				}
				snap = session.Snapshot()
			}
			session.Close()

			out := cmd.OutOrStdout()
			if snap.NotificationID != 0 && !snap.MarkReadDone {
				fmt.Fprintf(out, "warning: notification %d could not be marked read\n", snap.NotificationID)
			}
			for _, c := range snap.Comments {
				fmt.Fprintf(out, "[%s] %s: %s\n", c.CreatedAt.Format("2006-01-02 15:04"), c.CreatedBy, c.Comment)
			}
			if len(snap.Comments) == 0 {
				fmt.Fprintln(out, "no comments")
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&notificationID, "notification", 0, "notification the view was opened from")
	cmd.Flags().StringVar(&comment, "comment", "", "comment to post after loading")
	return cmd
}
