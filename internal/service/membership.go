package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/store"
)

var ErrMemberNotFound = errors.New("role member not found")

// MembershipService maintains the role directory. Adding a member catches
// them up on the role's open tasks.
type MembershipService interface {
	List(ctx context.Context, role string) ([]model.User, error)
	Add(ctx context.Context, role string, user model.User) error
	Remove(ctx context.Context, role, userID string) error
}

type membershipService struct {
	members store.RoleMemberStore
	repair  RepairService
}

func NewMembershipService(members store.RoleMemberStore, repair RepairService) MembershipService {
	return &membershipService{
		members: members,
		repair:  repair,
	}
}

func (s *membershipService) List(ctx context.Context, role string) ([]model.User, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", ErrInvalidInput)
	}
	return s.members.ListByRole(ctx, role)
}

func (s *membershipService) Add(ctx context.Context, role string, user model.User) error {
	role = strings.TrimSpace(role)
	user.ID = strings.TrimSpace(user.ID)
	if role == "" || user.ID == "" {
		return fmt.Errorf("%w: role and user id are required", ErrInvalidInput)
	}
	if user.DisplayName == "" {
		user.DisplayName = user.ID
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Role:      &role,
		UserID:    &user.ID,
		Component: "trialwatch.service.membership",
	})

	if err := s.members.Add(ctx, role, user); err != nil {
		return fmt.Errorf("adding role member: %w", err)
	}
	slog.InfoContext(ctx, "role member added")

	s.catchUp(ctx, role)
	return nil
}

func (s *membershipService) Remove(ctx context.Context, role, userID string) error {
	if err := s.members.Remove(ctx, role, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("removing role member: %w", err)
	}
	slog.InfoContext(ctx, "role member removed", "role", role, "user_id", userID)
	return nil
}

// catchUp never fails the membership change; the periodic sweep covers
// anything it misses.
func (s *membershipService) catchUp(ctx context.Context, role string) {
	result, err := s.repair.Repair(ctx, role)
	if err != nil {
		slog.WarnContext(ctx, "role repair after member add failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "new member caught up", "created", result.Created)
}
