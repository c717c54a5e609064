package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/store"
)

type MarkReadResult struct {
	Updated []model.Notification
	// NotFound lists ids that do not exist or belong to another user.
	NotFound []int64
}

type ReadTrackerService interface {
	MarkRead(ctx context.Context, userID string, ids []int64) (*MarkReadResult, error)
	List(ctx context.Context, userID string, unreadOnly bool, limit int32) ([]model.Notification, error)
}

type readTrackerService struct {
	notifications store.NotificationStore
	txRunner      TxRunner
}

func NewReadTrackerService(notifications store.NotificationStore, txRunner TxRunner) ReadTrackerService {
	return &readTrackerService{
		notifications: notifications,
		txRunner:      txRunner,
	}
}

// MarkRead flags the notifications read and records one read status row per
// (notification, user) in the same transaction. Repeating the call is a no-op.
func (s *readTrackerService) MarkRead(ctx context.Context, userID string, ids []int64) (*MarkReadResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUser
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: ids are required", ErrInvalidInput)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    &userID,
		Component: "trialwatch.service.read_tracker",
	})

	var updated []model.Notification
	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		var err error
		updated, err = sp.Notifications().MarkRead(ctx, userID, ids)
		if err != nil {
			return fmt.Errorf("marking notifications read: %w", err)
		}
		for _, n := range updated {
			if _, err := sp.Notifications().RecordReadStatus(ctx, n.ID, userID); err != nil {
				return fmt.Errorf("recording read status for %d: %w", n.ID, err)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	got := make(map[int64]struct{}, len(updated))
	for _, n := range updated {
		got[n.ID] = struct{}{}
	}
	result := &MarkReadResult{Updated: updated}
	for _, id := range ids {
		if _, ok := got[id]; !ok {
			result.NotFound = append(result.NotFound, id)
		}
	}

	slog.InfoContext(ctx, "notifications marked read", "requested", len(ids), "updated", len(updated), "not_found", len(result.NotFound))
	return result, nil
}

func (s *readTrackerService) List(ctx context.Context, userID string, unreadOnly bool, limit int32) ([]model.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	return s.notifications.ListByUser(ctx, userID, unreadOnly, limit)
}

func uniqueIDs(in []int64) []int64 {
	seen := make(map[int64]struct{}, len(in))
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
