package query

import "context"

const taskCommentColumns = `id, task_id, comment, created_by, role, attachments, created_at`

type CreateTaskCommentParams struct {
	ID          int64
	TaskID      int64
	Comment     string
	CreatedBy   string
	Role        *string
	Attachments []string
}

const createTaskComment = `INSERT INTO task_comments (id, task_id, comment, created_by, role, attachments)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + taskCommentColumns

func (q *Queries) CreateTaskComment(ctx context.Context, arg CreateTaskCommentParams) (TaskComment, error) {
	attachments := arg.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return collectOne[TaskComment](ctx, q.db, createTaskComment,
		arg.ID,
		arg.TaskID,
		arg.Comment,
		arg.CreatedBy,
		arg.Role,
		attachments,
	)
}

const listTaskComments = `SELECT ` + taskCommentColumns + `
FROM task_comments
WHERE task_id = $1
ORDER BY created_at, id`

func (q *Queries) ListTaskComments(ctx context.Context, taskID int64) ([]TaskComment, error) {
	return collectAll[TaskComment](ctx, q.db, listTaskComments, taskID)
}
