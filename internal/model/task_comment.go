package model

import "time"

type TaskComment struct {
	ID          int64     `json:"id,string"`
	TaskID      int64     `json:"task_id,string"`
	Comment     string    `json:"comment"`
	CreatedBy   string    `json:"created_by"`
	Role        *string   `json:"role,omitempty"`
	Attachments []string  `json:"attachments"`
	CreatedAt   time.Time `json:"created_at"`
}
