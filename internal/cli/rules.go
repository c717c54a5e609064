package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trialwatch.app/engine/internal/http/dto"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/threshold"
)

func newRulesCommand(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage threshold rules",
	}
	cmd.AddCommand(newRulesImportCommand(opts))
	return cmd
}

func newRulesImportCommand(opts Options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create or replace threshold rules from a YAML rule set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening rule set: %w", err)
			}
			defer f.Close()

			rules, err := threshold.ParseRuleSet(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, r := range rules {
					fmt.Fprintf(out, "%s/%s: %s %g/%g/%g/%g\n", r.TrialID, r.MetricName, r.Direction, r.Low, r.Medium, r.High, r.Critical)
				}
				fmt.Fprintf(out, "%d rules valid, nothing saved\n", len(rules))
				return nil
			}

			api, err := opts.API()
			if err != nil {
				return err
			}
			for _, r := range rules {
				if _, err := api.PutThresholdRule(cmd.Context(), r.MetricName, toPutRequest(r)); err != nil {
					return fmt.Errorf("saving %s: %w", r.MetricName, err)
				}
				fmt.Fprintf(out, "saved %s/%s\n", r.TrialID, r.MetricName)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without saving")
	return cmd
}

func toPutRequest(r model.ThresholdRule) dto.PutThresholdRuleRequest {
	enabled := r.Enabled
	return dto.PutThresholdRuleRequest{
		TrialID:      r.TrialID,
		Low:          &r.Low,
		Medium:       &r.Medium,
		High:         &r.High,
		Critical:     &r.Critical,
		Enabled:      &enabled,
		Direction:    string(r.Direction),
		Reference:    r.Reference,
		AssignedRole: r.AssignedRole,
	}
}
