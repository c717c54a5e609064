package store

import (
	"context"

	"trialwatch.app/engine/core/db/query"
	"trialwatch.app/engine/internal/model"
)

type roleMemberStore struct {
	queries *query.Queries
}

func newRoleMemberStore(queries *query.Queries) RoleMemberStore {
	return &roleMemberStore{queries: queries}
}

func (s *roleMemberStore) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	rows, err := s.queries.ListRoleMembers(ctx, role)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, model.User{
			ID:          row.UserID,
			DisplayName: row.DisplayName,
			Email:       row.Email,
		})
	}
	return users, nil
}

func (s *roleMemberStore) Add(ctx context.Context, role string, user model.User) error {
	return s.queries.UpsertRoleMember(ctx, query.UpsertRoleMemberParams{
		Role:        role,
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	})
}

func (s *roleMemberStore) Remove(ctx context.Context, role, userID string) error {
	n, err := s.queries.DeleteRoleMember(ctx, role, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
