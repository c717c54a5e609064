package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newNotificationsCommand(opts Options) *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List the acting user's notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := opts.API()
			if err != nil {
				return err
			}
			items, err := api.Notifications(cmd.Context(), unread)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tREAD\tPRIORITY\tTITLE\tLINK")
			for _, n := range items {
				fmt.Fprintf(w, "%d\t%t\t%s\t%s\t%s\n", n.ID, n.Read, n.Priority, n.Title, n.ActionURL)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	return cmd
}
