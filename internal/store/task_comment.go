package store

import (
	"context"

	"trialwatch.app/engine/core/db/query"
	"trialwatch.app/engine/internal/model"
)

type taskCommentStore struct {
	queries *query.Queries
}

func newTaskCommentStore(queries *query.Queries) TaskCommentStore {
	return &taskCommentStore{queries: queries}
}

func (s *taskCommentStore) Create(ctx context.Context, comment *model.TaskComment) error {
	row, err := s.queries.CreateTaskComment(ctx, query.CreateTaskCommentParams{
		ID:          comment.ID,
		TaskID:      comment.TaskID,
		Comment:     comment.Comment,
		CreatedBy:   comment.CreatedBy,
		Role:        comment.Role,
		Attachments: comment.Attachments,
	})
	if err != nil {
		return err
	}
	*comment = *toTaskCommentModel(row)
	return nil
}

func (s *taskCommentStore) ListByTask(ctx context.Context, taskID int64) ([]model.TaskComment, error) {
	rows, err := s.queries.ListTaskComments(ctx, taskID)
	if err != nil {
		return nil, err
	}
	result := make([]model.TaskComment, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toTaskCommentModel(row))
	}
	return result, nil
}

func toTaskCommentModel(row query.TaskComment) *model.TaskComment {
	attachments := row.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return &model.TaskComment{
		ID:          row.ID,
		TaskID:      row.TaskID,
		Comment:     row.Comment,
		CreatedBy:   row.CreatedBy,
		Role:        row.Role,
		Attachments: attachments,
		CreatedAt:   row.CreatedAt,
	}
}
