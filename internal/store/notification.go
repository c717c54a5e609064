package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"trialwatch.app/engine/core/db/query"
	"trialwatch.app/engine/internal/model"
)

type notificationStore struct {
	queries *query.Queries
}

func newNotificationStore(queries *query.Queries) NotificationStore {
	return &notificationStore{queries: queries}
}

func (s *notificationStore) CreateIfAbsent(ctx context.Context, n *model.Notification) (bool, error) {
	row, err := s.queries.InsertNotificationIfAbsent(ctx, query.InsertNotificationParams{
		ID:                n.ID,
		UserID:            n.UserID,
		Title:             n.Title,
		Description:       n.Description,
		Type:              string(n.Type),
		Priority:          string(n.Priority),
		TrialID:           n.TrialID,
		RelatedEntityType: n.RelatedEntityType,
		RelatedEntityID:   n.RelatedEntityID,
		TargetRoles:       n.TargetRoles,
		TargetUsers:       n.TargetUsers,
		ActionRequired:    n.ActionRequired,
		ActionUrl:         n.ActionURL,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	*n = *toNotificationModel(row)
	return true, nil
}

func (s *notificationStore) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int32) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.queries.ListNotificationsForUser(ctx, query.ListNotificationsForUserParams{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return toNotificationModels(rows), nil
}

func (s *notificationStore) ListNotifiedUsers(ctx context.Context, entityType, entityID string) ([]string, error) {
	return s.queries.ListNotifiedUsers(ctx, query.ListNotifiedUsersParams{
		RelatedEntityType: entityType,
		RelatedEntityID:   entityID,
	})
}

func (s *notificationStore) MarkRead(ctx context.Context, userID string, ids []int64) ([]model.Notification, error) {
	rows, err := s.queries.MarkNotificationsRead(ctx, query.MarkNotificationsReadParams{
		UserID: userID,
		IDs:    ids,
	})
	if err != nil {
		return nil, err
	}
	return toNotificationModels(rows), nil
}

func (s *notificationStore) RecordReadStatus(ctx context.Context, notificationID int64, userID string) (bool, error) {
	return s.queries.InsertReadStatus(ctx, query.InsertReadStatusParams{
		NotificationID: notificationID,
		UserID:         userID,
	})
}

func toNotificationModels(rows []query.Notification) []model.Notification {
	result := make([]model.Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toNotificationModel(row))
	}
	return result
}

func toNotificationModel(row query.Notification) *model.Notification {
	return &model.Notification{
		ID:                row.ID,
		UserID:            row.UserID,
		Title:             row.Title,
		Description:       row.Description,
		Type:              model.NotificationType(row.Type),
		Priority:          model.TaskPriority(row.Priority),
		TrialID:           row.TrialID,
		RelatedEntityType: row.RelatedEntityType,
		RelatedEntityID:   row.RelatedEntityID,
		TargetRoles:       row.TargetRoles,
		TargetUsers:       row.TargetUsers,
		Read:              row.Read,
		ActionRequired:    row.ActionRequired,
		ActionURL:         row.ActionUrl,
		CreatedAt:         row.CreatedAt,
		ReadAt:            row.ReadAt,
	}
}
