package query

import "context"

const notificationColumns = `id, user_id, title, description, type, priority, trial_id,
	related_entity_type, related_entity_id, target_roles, target_users,
	read, action_required, action_url, created_at, read_at`

type InsertNotificationParams struct {
	ID                int64
	UserID            string
	Title             string
	Description       string
	Type              string
	Priority          string
	TrialID           *string
	RelatedEntityType string
	RelatedEntityID   string
	TargetRoles       []string
	TargetUsers       []string
	ActionRequired    bool
	ActionUrl         string
}

// No row comes back when the user already has a notification for the entity.
const insertNotificationIfAbsent = `INSERT INTO notifications (
	id, user_id, title, description, type, priority, trial_id,
	related_entity_type, related_entity_id, target_roles, target_users,
	action_required, action_url
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (related_entity_type, related_entity_id, user_id) DO NOTHING
RETURNING ` + notificationColumns

func (q *Queries) InsertNotificationIfAbsent(ctx context.Context, arg InsertNotificationParams) (Notification, error) {
	roles := arg.TargetRoles
	if roles == nil {
		roles = []string{}
	}
	users := arg.TargetUsers
	if users == nil {
		users = []string{}
	}
	return collectOne[Notification](ctx, q.db, insertNotificationIfAbsent,
		arg.ID,
		arg.UserID,
		arg.Title,
		arg.Description,
		arg.Type,
		arg.Priority,
		arg.TrialID,
		arg.RelatedEntityType,
		arg.RelatedEntityID,
		roles,
		users,
		arg.ActionRequired,
		arg.ActionUrl,
	)
}

type ListNotificationsForUserParams struct {
	UserID     string
	UnreadOnly bool
	Limit      int32
}

const listNotificationsForUser = `SELECT ` + notificationColumns + `
FROM notifications
WHERE user_id = $1 AND (NOT $2::boolean OR NOT read)
ORDER BY created_at DESC, id DESC
LIMIT $3`

func (q *Queries) ListNotificationsForUser(ctx context.Context, arg ListNotificationsForUserParams) ([]Notification, error) {
	return collectAll[Notification](ctx, q.db, listNotificationsForUser, arg.UserID, arg.UnreadOnly, arg.Limit)
}

type ListNotifiedUsersParams struct {
	RelatedEntityType string
	RelatedEntityID   string
}

const listNotifiedUsers = `SELECT user_id
FROM notifications
WHERE related_entity_type = $1 AND related_entity_id = $2`

func (q *Queries) ListNotifiedUsers(ctx context.Context, arg ListNotifiedUsersParams) ([]string, error) {
	rows, err := q.db.Query(ctx, listNotifiedUsers, arg.RelatedEntityType, arg.RelatedEntityID)
	if err != nil {
		return nil, err
	}
	return pgxCollectStrings(rows)
}

type MarkNotificationsReadParams struct {
	UserID string
	IDs    []int64
}

// Only the caller's own notifications are touched. Rows already read keep
// their original read_at.
const markNotificationsRead = `UPDATE notifications
SET read = TRUE, read_at = COALESCE(read_at, now())
WHERE user_id = $1 AND id = ANY($2::bigint[])
RETURNING ` + notificationColumns

func (q *Queries) MarkNotificationsRead(ctx context.Context, arg MarkNotificationsReadParams) ([]Notification, error) {
	return collectAll[Notification](ctx, q.db, markNotificationsRead, arg.UserID, arg.IDs)
}

type InsertReadStatusParams struct {
	NotificationID int64
	UserID         string
}

const insertReadStatus = `INSERT INTO notification_read_status (notification_id, user_id)
VALUES ($1, $2)
ON CONFLICT (notification_id, user_id) DO NOTHING`

func (q *Queries) InsertReadStatus(ctx context.Context, arg InsertReadStatusParams) (bool, error) {
	tag, err := q.db.Exec(ctx, insertReadStatus, arg.NotificationID, arg.UserID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
