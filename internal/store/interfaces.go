package store

import (
	"context"
	"errors"
	"time"

	"trialwatch.app/engine/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would break a uniqueness invariant,
// e.g. re-opening a task whose dedup key is already held by another open task.
var ErrConflict = errors.New("conflict")

// ThresholdRuleStore defines the contract for threshold rule data access
type ThresholdRuleStore interface {
	ListByTrial(ctx context.Context, trialID string) ([]model.ThresholdRule, error)
	ListEnabledByTrial(ctx context.Context, trialID string) ([]model.ThresholdRule, error)
	Get(ctx context.Context, trialID, metricName string) (*model.ThresholdRule, error)
	Upsert(ctx context.Context, rule *model.ThresholdRule) error
}

// RecordStore defines the contract for imported record data access
type RecordStore interface {
	Upsert(ctx context.Context, record *model.Record) error
	ListByRecordIDs(ctx context.Context, trialID, domain, source string, recordIDs []string) ([]model.Record, error)
}

type TaskFilter struct {
	TrialID      *string
	Status       *model.TaskStatus
	AssignedRole *string
	Limit        int32
	Offset       int32
}

// TaskStore defines the contract for task data access
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	// CreateIfAbsent inserts the task unless an open task already holds its
	// dedup key. created is false when the insert was skipped.
	CreateIfAbsent(ctx context.Context, task *model.Task) (created bool, err error)
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	GetOpenByDedupKey(ctx context.Context, dedupKey string) (*model.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	ListOpenByRole(ctx context.Context, role string) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	TouchLastComment(ctx context.Context, id int64, at time.Time, by string) error
}

// TaskCommentStore defines the contract for task comment data access
type TaskCommentStore interface {
	Create(ctx context.Context, comment *model.TaskComment) error
	ListByTask(ctx context.Context, taskID int64) ([]model.TaskComment, error)
}

// NotificationStore defines the contract for notification data access
type NotificationStore interface {
	// CreateIfAbsent inserts the notification unless the user already has one
	// for the same related entity. created is false when the insert was skipped.
	CreateIfAbsent(ctx context.Context, notification *model.Notification) (created bool, err error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int32) ([]model.Notification, error)
	ListNotifiedUsers(ctx context.Context, entityType, entityID string) ([]string, error)
	MarkRead(ctx context.Context, userID string, ids []int64) ([]model.Notification, error)
	RecordReadStatus(ctx context.Context, notificationID int64, userID string) (bool, error)
}

// RoleMemberStore defines the contract for the role directory
type RoleMemberStore interface {
	ListByRole(ctx context.Context, role string) ([]model.User, error)
	Add(ctx context.Context, role string, user model.User) error
	Remove(ctx context.Context, role, userID string) error
}
