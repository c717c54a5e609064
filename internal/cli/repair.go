package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newRepairCommand(opts Options) *cobra.Command {
	var roles []string

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Create missing task notifications for role members",
		Long: `Repair scans the open tasks assigned to each role and creates the
notifications current members are missing. Running it again creates nothing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(roles) == 0 {
				return errors.New("at least one --role is required")
			}
			api, err := opts.API()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var failed int
			for _, role := range roles {
				resp, err := api.Repair(cmd.Context(), role)
				if err != nil {
					return fmt.Errorf("repairing %s: %w", role, err)
				}
				fmt.Fprintf(out, "%s: scanned %d tasks, created %d notifications\n", resp.Role, resp.TasksScanned, resp.Created)
				for _, e := range resp.Errors {
					fmt.Fprintf(out, "  ! %s: %s\n", e.Key, e.Error)
				}
				failed += len(resp.Errors)
			}
			if failed > 0 {
				return fmt.Errorf("%d notifications could not be created", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&roles, "role", nil, "role to repair (repeatable)")
	return cmd
}
