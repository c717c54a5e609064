package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/store"
)

type RepairResult struct {
	Role         string
	TasksScanned int
	Created      int
	Errors       []ItemError
}

// RepairService creates the notifications normal dispatch missed. Running it
// twice with nothing new in between creates nothing the second time.
type RepairService interface {
	Repair(ctx context.Context, role string) (*RepairResult, error)
}

type repairService struct {
	tasks         store.TaskStore
	notifications store.NotificationStore
	directory     Directory
}

func NewRepairService(tasks store.TaskStore, notifications store.NotificationStore, directory Directory) RepairService {
	return &repairService{
		tasks:         tasks,
		notifications: notifications,
		directory:     directory,
	}
}

func (s *repairService) Repair(ctx context.Context, role string) (*RepairResult, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", ErrInvalidInput)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Role:      &role,
		Component: "trialwatch.service.repair",
	})

	sc := logger.StartSpan(ctx, "notifications.repair")
	defer sc.End()
	ctx = sc.Context()

	members, err := s.directory.ResolveUsersForRole(ctx, role)
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("resolving role members: %w", err)
	}

	tasks, err := s.tasks.ListOpenByRole(ctx, role)
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("listing open tasks: %w", err)
	}

	result := &RepairResult{Role: role, TasksScanned: len(tasks)}
	if len(members) == 0 {
		slog.InfoContext(ctx, "role has no members, nothing to repair", "tasks", len(tasks))
		return result, nil
	}

	audience := Audience{Roles: []string{role}}
	for i := range tasks {
		task := &tasks[i]
		created, errs := s.repairTask(ctx, task, members, audience)
		result.Created += created
		result.Errors = append(result.Errors, errs...)
	}

	sc.SetInt("notifications.created", result.Created)
	slog.InfoContext(ctx, "repair sweep complete",
		"tasks", result.TasksScanned,
		"members", len(members),
		"created", result.Created,
		"failed", len(result.Errors))

	return result, nil
}

func (s *repairService) repairTask(ctx context.Context, task *model.Task, members []model.User, audience Audience) (int, []ItemError) {
	entityID := strconv.FormatInt(task.ID, 10)
	notified, err := s.notifications.ListNotifiedUsers(ctx, model.RelatedEntityTask, entityID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list notified users", "task_id", task.ID, "error", err)
		return 0, []ItemError{{Key: entityID, Err: fmt.Errorf("listing notified users: %w", err)}}
	}
	have := make(map[string]struct{}, len(notified))
	for _, userID := range notified {
		have[userID] = struct{}{}
	}

	var (
		created int
		errs    []ItemError
	)
	for _, member := range members {
		if _, ok := have[member.ID]; ok {
			continue
		}
		n := newTaskNotification(task, member.ID, audience)
		ok, err := s.notifications.CreateIfAbsent(ctx, n)
		if err != nil {
			slog.ErrorContext(ctx, "failed to create missing notification", "task_id", task.ID, "user_id", member.ID, "error", err)
			errs = append(errs, ItemError{Key: entityID + ":" + member.ID, Err: fmt.Errorf("creating notification: %w", err)})
			continue
		}
		if ok {
			created++
			slog.DebugContext(ctx, "missing notification created", "task_id", task.ID, "user_id", member.ID)
		}
	}
	return created, errs
}
