package model

import "time"

type TaskPriority string

const (
	TaskPriorityCritical TaskPriority = "Critical"
	TaskPriorityHigh     TaskPriority = "High"
	TaskPriorityMedium   TaskPriority = "Medium"
	TaskPriorityLow      TaskPriority = "Low"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityCritical, TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskStatusNotStarted  TaskStatus = "not_started"
	TaskStatusAssigned    TaskStatus = "assigned"
	TaskStatusInProgress  TaskStatus = "in_progress"
	TaskStatusResponded   TaskStatus = "responded"
	TaskStatusUnderReview TaskStatus = "under_review"
	TaskStatusReopened    TaskStatus = "re_opened"
	TaskStatusCompleted   TaskStatus = "completed"
	TaskStatusClosed      TaskStatus = "closed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusAssigned, TaskStatusInProgress, TaskStatusResponded,
		TaskStatusUnderReview, TaskStatusReopened, TaskStatusCompleted, TaskStatusClosed:
		return true
	}
	return false
}

// Open reports whether the status still holds the task's dedup key.
func (s TaskStatus) Open() bool {
	return s != TaskStatusCompleted && s != TaskStatusClosed
}

type Task struct {
	ID            int64        `json:"id,string"`
	TaskCode      string       `json:"task_code"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Priority      TaskPriority `json:"priority"`
	Status        TaskStatus   `json:"status"`
	TrialID       string       `json:"trial_id"`
	SiteID        *string      `json:"site_id,omitempty"`
	DetectionID   *string      `json:"detection_id,omitempty"`
	AssignedTo    *string      `json:"assigned_to,omitempty"`
	AssignedRole  *string      `json:"assigned_role,omitempty"`
	Domain        *string      `json:"domain,omitempty"`
	RecordID      *string      `json:"record_id,omitempty"`
	Source        *string      `json:"source,omitempty"`
	MetricName    *string      `json:"metric_name,omitempty"`
	DedupKey      *string      `json:"dedup_key,omitempty"`
	DueDate       time.Time    `json:"due_date"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	LastCommentAt *time.Time   `json:"last_comment_at,omitempty"`
	LastCommentBy *string      `json:"last_comment_by,omitempty"`
}
