// Package cli implements trialctl, the operator command line for a running
// trialwatch server.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"trialwatch.app/engine/internal/http/dto"
	"trialwatch.app/engine/internal/taskview"
)

// API is the slice of the HTTP client the commands use.
type API interface {
	taskview.Backend
	Notifications(ctx context.Context, unreadOnly bool) ([]dto.NotificationResponse, error)
	PutThresholdRule(ctx context.Context, metric string, req dto.PutThresholdRuleRequest) (*dto.ThresholdRuleResponse, error)
	Repair(ctx context.Context, role string) (*dto.RepairResponse, error)
	ListMembers(ctx context.Context, role string) ([]dto.MemberResponse, error)
	AddMember(ctx context.Context, role string, req dto.AddMemberRequest) error
	RemoveMember(ctx context.Context, role, userID string) error
}

// Options carries what the commands share. API is resolved lazily so flags
// parsed by the root command can shape the client.
type Options struct {
	API    func() (API, error)
	Policy taskview.Policy
}

func NewRootCommand(opts Options, version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "trialctl",
		Short:         "Operate a trialwatch server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRepairCommand(opts),
		newRulesCommand(opts),
		newMembersCommand(opts),
		newNotificationsCommand(opts),
		newTaskCommand(opts),
	)
	return root
}
