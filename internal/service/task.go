package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trialwatch.app/engine/common/id"
	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/store"
	"trialwatch.app/engine/internal/viewcache"
)

type CreateTaskParams struct {
	Title        string
	Description  string
	Priority     model.TaskPriority
	TrialID      string
	SiteID       *string
	AssignedTo   *string
	AssignedRole *string
	DueDate      *time.Time
}

type UpdateTaskParams struct {
	Status       *model.TaskStatus
	AssignedTo   *string
	AssignedRole *string
}

type AddCommentParams struct {
	Comment     string
	CreatedBy   string
	Role        *string
	Attachments []string
}

type TaskService interface {
	Create(ctx context.Context, params CreateTaskParams) (*model.Task, *DispatchResult, error)
	Get(ctx context.Context, id int64) (*model.Task, error)
	List(ctx context.Context, filter store.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, id int64, params UpdateTaskParams) (*model.Task, error)
	AddComment(ctx context.Context, taskID int64, params AddCommentParams) (*model.TaskComment, error)
	// ListComments serves the thread from the partition's cache. bust skips the
	// cache, reloads from the database and refreshes every partition.
	ListComments(ctx context.Context, taskID int64, partition viewcache.Partition, bust bool) ([]model.TaskComment, error)
}

type taskService struct {
	tasks      store.TaskStore
	comments   store.TaskCommentStore
	txRunner   TxRunner
	dispatcher DispatcherService
	cache      viewcache.Cache
	now        func() time.Time
}

func NewTaskService(tasks store.TaskStore, comments store.TaskCommentStore, txRunner TxRunner, dispatcher DispatcherService, cache viewcache.Cache) TaskService {
	return &taskService{
		tasks:      tasks,
		comments:   comments,
		txRunner:   txRunner,
		dispatcher: dispatcher,
		cache:      cache,
		now:        time.Now,
	}
}

func (s *taskService) Create(ctx context.Context, params CreateTaskParams) (*model.Task, *DispatchResult, error) {
	params.Title = strings.TrimSpace(params.Title)
	if params.Title == "" || params.TrialID == "" {
		return nil, nil, fmt.Errorf("%w: title and trial_id are required", ErrInvalidInput)
	}
	if params.Priority == "" {
		params.Priority = model.TaskPriorityMedium
	}
	if !params.Priority.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, params.Priority)
	}

	taskID := id.New()
	task := &model.Task{
		ID:           taskID,
		TaskCode:     id.Code(TaskCodePrefix, taskID),
		Title:        params.Title,
		Description:  params.Description,
		Priority:     params.Priority,
		Status:       model.TaskStatusNotStarted,
		TrialID:      params.TrialID,
		SiteID:       params.SiteID,
		AssignedTo:   nonEmpty(params.AssignedTo),
		AssignedRole: nonEmpty(params.AssignedRole),
	}
	if task.AssignedTo != nil || task.AssignedRole != nil {
		task.Status = model.TaskStatusAssigned
	}
	if params.DueDate != nil {
		task.DueDate = *params.DueDate
	} else {
		task.DueDate = DueDate(s.now(), params.Priority)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, nil, fmt.Errorf("creating task: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TaskID: &task.ID, TrialID: &task.TrialID})
	slog.InfoContext(ctx, "task created", "task_code", task.TaskCode, "priority", task.Priority)

	dispatch, err := s.dispatcher.Dispatch(ctx, task)
	if err != nil {
		// The task exists; the repair sweep picks up whatever was missed.
		slog.ErrorContext(ctx, "failed to dispatch task notifications", "error", err)
	}
	return task, dispatch, nil
}

func (s *taskService) Get(ctx context.Context, id int64) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("fetching task: %w", err)
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, filter store.TaskFilter) ([]model.Task, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *filter.Status)
	}
	return s.tasks.List(ctx, filter)
}

func (s *taskService) Update(ctx context.Context, id int64, params UpdateTaskParams) (*model.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{TaskID: &task.ID, TrialID: &task.TrialID})

	prevAssignee, prevRole := deref(task.AssignedTo), deref(task.AssignedRole)

	if params.Status != nil {
		if err := checkTransition(task.Status, *params.Status); err != nil {
			return nil, err
		}
		task.Status = *params.Status
	}
	if params.AssignedTo != nil {
		task.AssignedTo = nonEmpty(params.AssignedTo)
	}
	if params.AssignedRole != nil {
		task.AssignedRole = nonEmpty(params.AssignedRole)
	}
	if task.Status == model.TaskStatusNotStarted && (task.AssignedTo != nil || task.AssignedRole != nil) {
		task.Status = model.TaskStatusAssigned
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrTaskNotFound
		case errors.Is(err, store.ErrConflict):
			return nil, ErrDedupKeyHeld
		}
		return nil, fmt.Errorf("updating task: %w", err)
	}
	slog.InfoContext(ctx, "task updated", "status", task.Status)

	var audience Audience
	if a := deref(task.AssignedTo); a != "" && a != prevAssignee {
		audience.UserIDs = []string{a}
	}
	if r := deref(task.AssignedRole); r != "" && r != prevRole {
		audience.Roles = []string{r}
	}
	if !audience.Empty() && task.Status.Open() {
		if _, err := s.dispatcher.DispatchTo(ctx, task, audience); err != nil {
			slog.ErrorContext(ctx, "failed to dispatch reassignment notifications", "error", err)
		}
	}

	return task, nil
}

// checkTransition allows any move between open statuses and into a closed
// status. A closed task can only be re-opened.
func checkTransition(from, to model.TaskStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if !from.Open() && to != model.TaskStatusReopened && to != from {
		return fmt.Errorf("%w: %s task can only be re-opened", ErrInvalidStatus, from)
	}
	return nil
}

func (s *taskService) AddComment(ctx context.Context, taskID int64, params AddCommentParams) (*model.TaskComment, error) {
	params.Comment = strings.TrimSpace(params.Comment)
	if params.Comment == "" {
		return nil, fmt.Errorf("%w: comment is required", ErrInvalidInput)
	}
	if strings.TrimSpace(params.CreatedBy) == "" {
		return nil, ErrMissingUser
	}

	comment := &model.TaskComment{
		ID:          id.New(),
		TaskID:      taskID,
		Comment:     params.Comment,
		CreatedBy:   params.CreatedBy,
		Role:        nonEmpty(params.Role),
		Attachments: params.Attachments,
	}

	if err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if _, err := sp.Tasks().GetByID(ctx, taskID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("fetching task: %w", err)
		}
		if err := sp.TaskComments().Create(ctx, comment); err != nil {
			return fmt.Errorf("creating comment: %w", err)
		}
		if err := sp.Tasks().TouchLastComment(ctx, taskID, comment.CreatedAt, comment.CreatedBy); err != nil {
			return fmt.Errorf("updating last comment: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TaskID: &taskID})
	if err := viewcache.AppendAll(ctx, s.cache, taskID, *comment); err != nil {
		// Dropping the entry forces the next read back to the database.
		slog.WarnContext(ctx, "failed to append comment to cache, invalidating", "error", err)
		if err := s.cache.Invalidate(ctx, taskID); err != nil {
			slog.ErrorContext(ctx, "failed to invalidate comment cache", "error", err)
		}
	}

	return comment, nil
}

func (s *taskService) ListComments(ctx context.Context, taskID int64, partition viewcache.Partition, bust bool) ([]model.TaskComment, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{TaskID: &taskID})

	if !bust {
		cached, ok, err := s.cache.Get(ctx, partition, taskID)
		if err != nil {
			slog.WarnContext(ctx, "comment cache read failed, falling back to database", "partition", partition, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	if _, err := s.Get(ctx, taskID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	out := comments
	for _, p := range viewcache.Partitions {
		merged, err := s.cache.MergeInto(ctx, p, taskID, comments)
		if err != nil {
			slog.WarnContext(ctx, "failed to refresh comment cache", "partition", p, "error", err)
			continue
		}
		if p == partition {
			out = merged
		}
	}
	return out, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
