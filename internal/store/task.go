package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"trialwatch.app/engine/core/db/query"
	"trialwatch.app/engine/internal/model"
)

const uniqueViolation = "23505"

type taskStore struct {
	queries *query.Queries
}

func newTaskStore(queries *query.Queries) TaskStore {
	return &taskStore{queries: queries}
}

func (s *taskStore) Create(ctx context.Context, task *model.Task) error {
	row, err := s.queries.CreateTask(ctx, toCreateTaskParams(task))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	*task = *toTaskModel(row)
	return nil
}

func (s *taskStore) CreateIfAbsent(ctx context.Context, task *model.Task) (bool, error) {
	row, err := s.queries.InsertTaskIfAbsent(ctx, toCreateTaskParams(task))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	*task = *toTaskModel(row)
	return true, nil
}

func (s *taskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	row, err := s.queries.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toTaskModel(row), nil
}

func (s *taskStore) GetOpenByDedupKey(ctx context.Context, dedupKey string) (*model.Task, error) {
	row, err := s.queries.GetOpenTaskByDedupKey(ctx, dedupKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toTaskModel(row), nil
}

func (s *taskStore) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	var status *string
	if filter.Status != nil {
		v := string(*filter.Status)
		status = &v
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.queries.ListTasks(ctx, query.ListTasksParams{
		TrialID:      filter.TrialID,
		Status:       status,
		AssignedRole: filter.AssignedRole,
		Limit:        limit,
		Offset:       filter.Offset,
	})
	if err != nil {
		return nil, err
	}
	return toTaskModels(rows), nil
}

func (s *taskStore) ListOpenByRole(ctx context.Context, role string) ([]model.Task, error) {
	rows, err := s.queries.ListOpenTasksByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	return toTaskModels(rows), nil
}

func (s *taskStore) Update(ctx context.Context, task *model.Task) error {
	row, err := s.queries.UpdateTask(ctx, query.UpdateTaskParams{
		ID:           task.ID,
		Status:       string(task.Status),
		AssignedTo:   task.AssignedTo,
		AssignedRole: task.AssignedRole,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	*task = *toTaskModel(row)
	return nil
}

func (s *taskStore) TouchLastComment(ctx context.Context, id int64, at time.Time, by string) error {
	n, err := s.queries.TouchTaskLastComment(ctx, query.TouchTaskLastCommentParams{
		ID:            id,
		LastCommentAt: at,
		LastCommentBy: by,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func toCreateTaskParams(task *model.Task) query.CreateTaskParams {
	return query.CreateTaskParams{
		ID:           task.ID,
		TaskCode:     task.TaskCode,
		Title:        task.Title,
		Description:  task.Description,
		Priority:     string(task.Priority),
		Status:       string(task.Status),
		TrialID:      task.TrialID,
		SiteID:       task.SiteID,
		DetectionID:  task.DetectionID,
		AssignedTo:   task.AssignedTo,
		AssignedRole: task.AssignedRole,
		Domain:       task.Domain,
		RecordID:     task.RecordID,
		Source:       task.Source,
		MetricName:   task.MetricName,
		DedupKey:     task.DedupKey,
		DueDate:      task.DueDate,
	}
}

func toTaskModels(rows []query.Task) []model.Task {
	result := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toTaskModel(row))
	}
	return result
}

func toTaskModel(row query.Task) *model.Task {
	return &model.Task{
		ID:            row.ID,
		TaskCode:      row.TaskCode,
		Title:         row.Title,
		Description:   row.Description,
		Priority:      model.TaskPriority(row.Priority),
		Status:        model.TaskStatus(row.Status),
		TrialID:       row.TrialID,
		SiteID:        row.SiteID,
		DetectionID:   row.DetectionID,
		AssignedTo:    row.AssignedTo,
		AssignedRole:  row.AssignedRole,
		Domain:        row.Domain,
		RecordID:      row.RecordID,
		Source:        row.Source,
		MetricName:    row.MetricName,
		DedupKey:      row.DedupKey,
		DueDate:       row.DueDate,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		LastCommentAt: row.LastCommentAt,
		LastCommentBy: row.LastCommentBy,
	}
}
