package model

import "time"

type NotificationType string

const (
	NotificationTypeTaskAssigned NotificationType = "task_assigned"
)

const RelatedEntityTask = "task"

type Notification struct {
	ID                int64            `json:"id,string"`
	UserID            string           `json:"user_id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Type              NotificationType `json:"type"`
	Priority          TaskPriority     `json:"priority"`
	TrialID           *string          `json:"trial_id,omitempty"`
	RelatedEntityType string           `json:"related_entity_type"`
	RelatedEntityID   string           `json:"related_entity_id"`
	TargetRoles       []string         `json:"target_roles"`
	TargetUsers       []string         `json:"target_users"`
	Read              bool             `json:"read"`
	ActionRequired    bool             `json:"action_required"`
	ActionURL         string           `json:"action_url"`
	CreatedAt         time.Time        `json:"created_at"`
	ReadAt            *time.Time       `json:"read_at,omitempty"`
}

type NotificationReadStatus struct {
	NotificationID int64     `json:"notification_id,string"`
	UserID         string    `json:"user_id"`
	ReadAt         time.Time `json:"read_at"`
}
