package dto

import (
	"time"

	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/service"
)

type CreateTaskRequest struct {
	Title        string     `json:"title" binding:"required,min=1,max=500"`
	Description  string     `json:"description"`
	Priority     string     `json:"priority" binding:"omitempty,oneof=Critical High Medium Low"`
	TrialID      string     `json:"trial_id" binding:"required"`
	SiteID       *string    `json:"site_id,omitempty"`
	AssignedTo   *string    `json:"assigned_to,omitempty"`
	AssignedRole *string    `json:"assigned_role,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

type UpdateTaskRequest struct {
	Status       *string `json:"status,omitempty"`
	AssignedTo   *string `json:"assigned_to,omitempty"`
	AssignedRole *string `json:"assigned_role,omitempty"`
}

func (r UpdateTaskRequest) ToParams() service.UpdateTaskParams {
	params := service.UpdateTaskParams{
		AssignedTo:   r.AssignedTo,
		AssignedRole: r.AssignedRole,
	}
	if r.Status != nil {
		status := model.TaskStatus(*r.Status)
		params.Status = &status
	}
	return params
}

type TaskResponse struct {
	ID            int64      `json:"id,string"`
	TaskCode      string     `json:"task_code"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Priority      string     `json:"priority"`
	Status        string     `json:"status"`
	TrialID       string     `json:"trial_id"`
	SiteID        *string    `json:"site_id,omitempty"`
	AssignedTo    *string    `json:"assigned_to,omitempty"`
	AssignedRole  *string    `json:"assigned_role,omitempty"`
	Domain        *string    `json:"domain,omitempty"`
	RecordID      *string    `json:"record_id,omitempty"`
	MetricName    *string    `json:"metric_name,omitempty"`
	DueDate       time.Time  `json:"due_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastCommentAt *time.Time `json:"last_comment_at,omitempty"`
	LastCommentBy *string    `json:"last_comment_by,omitempty"`
}

func ToTaskResponse(t *model.Task) TaskResponse {
	return TaskResponse{
		ID:            t.ID,
		TaskCode:      t.TaskCode,
		Title:         t.Title,
		Description:   t.Description,
		Priority:      string(t.Priority),
		Status:        string(t.Status),
		TrialID:       t.TrialID,
		SiteID:        t.SiteID,
		AssignedTo:    t.AssignedTo,
		AssignedRole:  t.AssignedRole,
		Domain:        t.Domain,
		RecordID:      t.RecordID,
		MetricName:    t.MetricName,
		DueDate:       t.DueDate,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		LastCommentAt: t.LastCommentAt,
		LastCommentBy: t.LastCommentBy,
	}
}

func ToTaskResponses(tasks []model.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, ToTaskResponse(&tasks[i]))
	}
	return out
}

type CreateTaskResponse struct {
	Task              TaskResponse `json:"task"`
	NotificationsSent int          `json:"notifications_sent"`
}

type AddCommentRequest struct {
	Comment     string   `json:"comment" binding:"required"`
	Role        *string  `json:"role,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

type CommentResponse struct {
	ID          int64     `json:"id,string"`
	TaskID      int64     `json:"task_id,string"`
	Comment     string    `json:"comment"`
	CreatedBy   string    `json:"created_by"`
	Role        *string   `json:"role,omitempty"`
	Attachments []string  `json:"attachments"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToCommentResponse(c *model.TaskComment) CommentResponse {
	attachments := c.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return CommentResponse{
		ID:          c.ID,
		TaskID:      c.TaskID,
		Comment:     c.Comment,
		CreatedBy:   c.CreatedBy,
		Role:        c.Role,
		Attachments: attachments,
		CreatedAt:   c.CreatedAt,
	}
}

func ToCommentResponses(comments []model.TaskComment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, ToCommentResponse(&comments[i]))
	}
	return out
}

// ToTaskComment is the inverse of ToCommentResponse, used by API clients.
func ToTaskComment(c CommentResponse) model.TaskComment {
	return model.TaskComment{
		ID:          c.ID,
		TaskID:      c.TaskID,
		Comment:     c.Comment,
		CreatedBy:   c.CreatedBy,
		Role:        c.Role,
		Attachments: c.Attachments,
		CreatedAt:   c.CreatedAt,
	}
}
