package service

import (
	"context"
	"fmt"

	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/store"
)

// Directory resolves roles to their current members. Implementations must
// read membership fresh on every call.
type Directory interface {
	ResolveUsersForRole(ctx context.Context, role string) ([]model.User, error)
}

type storeDirectory struct {
	members store.RoleMemberStore
}

// NewDirectory builds a Directory over the role_members table.
func NewDirectory(members store.RoleMemberStore) Directory {
	return &storeDirectory{members: members}
}

func (d *storeDirectory) ResolveUsersForRole(ctx context.Context, role string) ([]model.User, error) {
	users, err := d.members.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("listing members of role %q: %w", role, err)
	}
	return users, nil
}
