package query

import "context"

const listRoleMembers = `SELECT role, user_id, display_name, email
FROM role_members
WHERE role = $1
ORDER BY user_id`

func (q *Queries) ListRoleMembers(ctx context.Context, role string) ([]RoleMember, error) {
	return collectAll[RoleMember](ctx, q.db, listRoleMembers, role)
}

type UpsertRoleMemberParams struct {
	Role        string
	UserID      string
	DisplayName string
	Email       string
}

const upsertRoleMember = `INSERT INTO role_members (role, user_id, display_name, email)
VALUES ($1, $2, $3, $4)
ON CONFLICT (role, user_id) DO UPDATE SET
	display_name = EXCLUDED.display_name,
	email = EXCLUDED.email`

func (q *Queries) UpsertRoleMember(ctx context.Context, arg UpsertRoleMemberParams) error {
	_, err := q.db.Exec(ctx, upsertRoleMember, arg.Role, arg.UserID, arg.DisplayName, arg.Email)
	return err
}

const deleteRoleMember = `DELETE FROM role_members WHERE role = $1 AND user_id = $2`

func (q *Queries) DeleteRoleMember(ctx context.Context, role, userID string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteRoleMember, role, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
