package query

import (
	"context"
	"time"
)

const taskColumns = `id, task_code, title, description, priority, status, trial_id, site_id, detection_id,
	assigned_to, assigned_role, domain, record_id, source, metric_name, dedup_key,
	due_date, created_at, updated_at, last_comment_at, last_comment_by`

type CreateTaskParams struct {
	ID           int64
	TaskCode     string
	Title        string
	Description  string
	Priority     string
	Status       string
	TrialID      string
	SiteID       *string
	DetectionID  *string
	AssignedTo   *string
	AssignedRole *string
	Domain       *string
	RecordID     *string
	Source       *string
	MetricName   *string
	DedupKey     *string
	DueDate      time.Time
}

func (arg CreateTaskParams) args() []any {
	return []any{
		arg.ID,
		arg.TaskCode,
		arg.Title,
		arg.Description,
		arg.Priority,
		arg.Status,
		arg.TrialID,
		arg.SiteID,
		arg.DetectionID,
		arg.AssignedTo,
		arg.AssignedRole,
		arg.Domain,
		arg.RecordID,
		arg.Source,
		arg.MetricName,
		arg.DedupKey,
		arg.DueDate,
	}
}

const insertTask = `INSERT INTO tasks (
	id, task_code, title, description, priority, status, trial_id, site_id, detection_id,
	assigned_to, assigned_role, domain, record_id, source, metric_name, dedup_key, due_date
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

const createTask = insertTask + `
RETURNING ` + taskColumns

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (Task, error) {
	return collectOne[Task](ctx, q.db, createTask, arg.args()...)
}

// The conflict target matches idx_tasks_open_dedup_key, so the existence check
// and the insert are a single statement. No row comes back when an open task
// already holds the key.
const insertTaskIfAbsent = insertTask + `
ON CONFLICT (dedup_key) WHERE dedup_key IS NOT NULL AND status NOT IN ('completed', 'closed') DO NOTHING
RETURNING ` + taskColumns

func (q *Queries) InsertTaskIfAbsent(ctx context.Context, arg CreateTaskParams) (Task, error) {
	return collectOne[Task](ctx, q.db, insertTaskIfAbsent, arg.args()...)
}

const getTask = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

func (q *Queries) GetTask(ctx context.Context, id int64) (Task, error) {
	return collectOne[Task](ctx, q.db, getTask, id)
}

const getOpenTaskByDedupKey = `SELECT ` + taskColumns + `
FROM tasks
WHERE dedup_key = $1 AND status NOT IN ('completed', 'closed')`

func (q *Queries) GetOpenTaskByDedupKey(ctx context.Context, dedupKey string) (Task, error) {
	return collectOne[Task](ctx, q.db, getOpenTaskByDedupKey, dedupKey)
}

type ListTasksParams struct {
	TrialID      *string
	Status       *string
	AssignedRole *string
	Limit        int32
	Offset       int32
}

const listTasks = `SELECT ` + taskColumns + `
FROM tasks
WHERE ($1::text IS NULL OR trial_id = $1)
  AND ($2::text IS NULL OR status = $2)
  AND ($3::text IS NULL OR assigned_role = $3)
ORDER BY created_at DESC, id DESC
LIMIT $4 OFFSET $5`

func (q *Queries) ListTasks(ctx context.Context, arg ListTasksParams) ([]Task, error) {
	return collectAll[Task](ctx, q.db, listTasks, arg.TrialID, arg.Status, arg.AssignedRole, arg.Limit, arg.Offset)
}

const listOpenTasksByRole = `SELECT ` + taskColumns + `
FROM tasks
WHERE assigned_role = $1 AND status NOT IN ('completed', 'closed')
ORDER BY id`

func (q *Queries) ListOpenTasksByRole(ctx context.Context, role string) ([]Task, error) {
	return collectAll[Task](ctx, q.db, listOpenTasksByRole, role)
}

type UpdateTaskParams struct {
	ID           int64
	Status       string
	AssignedTo   *string
	AssignedRole *string
}

const updateTask = `UPDATE tasks
SET status = $2, assigned_to = $3, assigned_role = $4, updated_at = now()
WHERE id = $1
RETURNING ` + taskColumns

func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) (Task, error) {
	return collectOne[Task](ctx, q.db, updateTask, arg.ID, arg.Status, arg.AssignedTo, arg.AssignedRole)
}

type TouchTaskLastCommentParams struct {
	ID            int64
	LastCommentAt time.Time
	LastCommentBy string
}

const touchTaskLastComment = `UPDATE tasks
SET last_comment_at = $2, last_comment_by = $3, updated_at = now()
WHERE id = $1`

func (q *Queries) TouchTaskLastComment(ctx context.Context, arg TouchTaskLastCommentParams) (int64, error) {
	tag, err := q.db.Exec(ctx, touchTaskLastComment, arg.ID, arg.LastCommentAt, arg.LastCommentBy)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
