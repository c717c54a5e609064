package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trialwatch.app/engine/internal/http/dto"
)

func newMembersCommand(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage role membership",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list ROLE",
		Short: "List the members of a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := opts.API()
			if err != nil {
				return err
			}
			members, err := api.ListMembers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tNAME\tEMAIL")
			for _, m := range members {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.UserID, m.DisplayName, m.Email)
			}
			return w.Flush()
		},
	})

	var name, email string
	add := &cobra.Command{
		Use:   "add ROLE USER_ID",
		Short: "Add a member; they are notified of the role's open tasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := opts.API()
			if err != nil {
				return err
			}
			if err := api.AddMember(cmd.Context(), args[0], dto.AddMemberRequest{
				UserID:      args[1],
				DisplayName: name,
				Email:       email,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", args[1], args[0])
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&email, "email", "", "email address")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove ROLE USER_ID",
		Short: "Remove a member from a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := opts.API()
			if err != nil {
				return err
			}
			if err := api.RemoveMember(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", args[1], args[0])
			return nil
		},
	})

	return cmd
}
