package query

import "time"

type ThresholdRule struct {
	ID           int64     `db:"id"`
	TrialID      string    `db:"trial_id"`
	MetricName   string    `db:"metric_name"`
	Low          float64   `db:"low"`
	Medium       float64   `db:"medium"`
	High         float64   `db:"high"`
	Critical     float64   `db:"critical"`
	Enabled      bool      `db:"enabled"`
	Direction    string    `db:"direction"`
	Reference    *float64  `db:"reference"`
	AssignedRole *string   `db:"assigned_role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type Record struct {
	ID         int64     `db:"id"`
	TrialID    string    `db:"trial_id"`
	Domain     string    `db:"domain"`
	Source     string    `db:"source"`
	RecordID   string    `db:"record_id"`
	Data       []byte    `db:"data"`
	ImportedAt time.Time `db:"imported_at"`
}

type Task struct {
	ID            int64      `db:"id"`
	TaskCode      string     `db:"task_code"`
	Title         string     `db:"title"`
	Description   string     `db:"description"`
	Priority      string     `db:"priority"`
	Status        string     `db:"status"`
	TrialID       string     `db:"trial_id"`
	SiteID        *string    `db:"site_id"`
	DetectionID   *string    `db:"detection_id"`
	AssignedTo    *string    `db:"assigned_to"`
	AssignedRole  *string    `db:"assigned_role"`
	Domain        *string    `db:"domain"`
	RecordID      *string    `db:"record_id"`
	Source        *string    `db:"source"`
	MetricName    *string    `db:"metric_name"`
	DedupKey      *string    `db:"dedup_key"`
	DueDate       time.Time  `db:"due_date"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	LastCommentAt *time.Time `db:"last_comment_at"`
	LastCommentBy *string    `db:"last_comment_by"`
}

type TaskComment struct {
	ID          int64     `db:"id"`
	TaskID      int64     `db:"task_id"`
	Comment     string    `db:"comment"`
	CreatedBy   string    `db:"created_by"`
	Role        *string   `db:"role"`
	Attachments []string  `db:"attachments"`
	CreatedAt   time.Time `db:"created_at"`
}

type Notification struct {
	ID                int64      `db:"id"`
	UserID            string     `db:"user_id"`
	Title             string     `db:"title"`
	Description       string     `db:"description"`
	Type              string     `db:"type"`
	Priority          string     `db:"priority"`
	TrialID           *string    `db:"trial_id"`
	RelatedEntityType string     `db:"related_entity_type"`
	RelatedEntityID   string     `db:"related_entity_id"`
	TargetRoles       []string   `db:"target_roles"`
	TargetUsers       []string   `db:"target_users"`
	Read              bool       `db:"read"`
	ActionRequired    bool       `db:"action_required"`
	ActionUrl         string     `db:"action_url"`
	CreatedAt         time.Time  `db:"created_at"`
	ReadAt            *time.Time `db:"read_at"`
}

type NotificationReadStatus struct {
	NotificationID int64     `db:"notification_id"`
	UserID         string    `db:"user_id"`
	ReadAt         time.Time `db:"read_at"`
}

type RoleMember struct {
	Role        string `db:"role"`
	UserID      string `db:"user_id"`
	DisplayName string `db:"display_name"`
	Email       string `db:"email"`
}
