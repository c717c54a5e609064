package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"trialwatch.app/engine/common/id"
	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/store"
)

// TaskActionURL is where a task notification sends the user.
func TaskActionURL(taskID int64) string {
	return "/tasks/details/" + strconv.FormatInt(taskID, 10)
}

// Audience names the recipients of a dispatch. Roles are resolved to their
// members at dispatch time.
type Audience struct {
	Roles   []string `json:"roles,omitempty"`
	UserIDs []string `json:"user_ids,omitempty"`
}

func (a Audience) Empty() bool {
	return len(a.Roles) == 0 && len(a.UserIDs) == 0
}

// AudienceForTask targets the assignee and the members of the assigned role.
func AudienceForTask(task *model.Task) Audience {
	var a Audience
	if task.AssignedTo != nil && *task.AssignedTo != "" {
		a.UserIDs = []string{*task.AssignedTo}
	}
	if task.AssignedRole != nil && *task.AssignedRole != "" {
		a.Roles = []string{*task.AssignedRole}
	}
	return a
}

type DispatchResult struct {
	TaskID  int64
	Created []model.Notification
	Skipped int
	Errors  []ItemError
}

type DispatcherService interface {
	Dispatch(ctx context.Context, task *model.Task) (*DispatchResult, error)
	DispatchTo(ctx context.Context, task *model.Task, audience Audience) (*DispatchResult, error)
}

type dispatcherService struct {
	notifications store.NotificationStore
	directory     Directory
}

func NewDispatcherService(notifications store.NotificationStore, directory Directory) DispatcherService {
	return &dispatcherService{
		notifications: notifications,
		directory:     directory,
	}
}

func (s *dispatcherService) Dispatch(ctx context.Context, task *model.Task) (*DispatchResult, error) {
	return s.DispatchTo(ctx, task, AudienceForTask(task))
}

func (s *dispatcherService) DispatchTo(ctx context.Context, task *model.Task, audience Audience) (*DispatchResult, error) {
	if task == nil || task.ID == 0 {
		return nil, fmt.Errorf("%w: task is required", ErrInvalidInput)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TaskID:    &task.ID,
		TrialID:   &task.TrialID,
		Component: "trialwatch.service.dispatcher",
	})

	result := &DispatchResult{TaskID: task.ID}
	if audience.Empty() {
		slog.DebugContext(ctx, "task has no audience, nothing to dispatch")
		return result, nil
	}

	userIDs, resolveErrs := resolveAudience(ctx, s.directory, audience)
	result.Errors = append(result.Errors, resolveErrs...)

	for _, userID := range userIDs {
		n := newTaskNotification(task, userID, audience)
		created, err := s.notifications.CreateIfAbsent(ctx, n)
		if err != nil {
			slog.ErrorContext(ctx, "failed to create notification", "user_id", userID, "error", err)
			result.Errors = append(result.Errors, ItemError{Key: userID, Err: fmt.Errorf("creating notification: %w", err)})
			continue
		}
		if !created {
			result.Skipped++
			continue
		}
		result.Created = append(result.Created, *n)
	}

	slog.InfoContext(ctx, "task dispatched",
		"recipients", len(userIDs),
		"created", len(result.Created),
		"skipped", result.Skipped,
		"failed", len(result.Errors))

	return result, nil
}

// resolveAudience returns the distinct recipients, explicit users first. A
// role that cannot be resolved is reported and the remaining roles proceed.
func resolveAudience(ctx context.Context, directory Directory, audience Audience) ([]string, []ItemError) {
	seen := make(map[string]struct{})
	var (
		users []string
		errs  []ItemError
	)
	add := func(userID string) {
		if userID == "" {
			return
		}
		if _, ok := seen[userID]; ok {
			return
		}
		seen[userID] = struct{}{}
		users = append(users, userID)
	}

	for _, userID := range audience.UserIDs {
		add(userID)
	}
	for _, role := range audience.Roles {
		members, err := directory.ResolveUsersForRole(ctx, role)
		if err != nil {
			slog.ErrorContext(ctx, "failed to resolve role members", "role", role, "error", err)
			errs = append(errs, ItemError{Key: "role:" + role, Err: err})
			continue
		}
		for _, m := range members {
			add(m.ID)
		}
	}
	return users, errs
}

func newTaskNotification(task *model.Task, userID string, audience Audience) *model.Notification {
	trialID := task.TrialID
	roles := append([]string{}, audience.Roles...)
	users := append([]string{}, audience.UserIDs...)

	return &model.Notification{
		ID:                id.New(),
		UserID:            userID,
		Title:             fmt.Sprintf("%s priority task %s: %s", task.Priority, task.TaskCode, task.Title),
		Description:       task.Description,
		Type:              model.NotificationTypeTaskAssigned,
		Priority:          task.Priority,
		TrialID:           &trialID,
		RelatedEntityType: model.RelatedEntityTask,
		RelatedEntityID:   strconv.FormatInt(task.ID, 10),
		TargetRoles:       roles,
		TargetUsers:       users,
		ActionRequired:    true,
		ActionURL:         TaskActionURL(task.ID),
	}
}
