package dto

import (
	"strconv"
	"time"

	"trialwatch.app/engine/internal/model"
)

type NotificationResponse struct {
	ID                int64      `json:"id,string"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Type              string     `json:"type"`
	Priority          string     `json:"priority"`
	TrialID           *string    `json:"trial_id,omitempty"`
	RelatedEntityType string     `json:"related_entity_type"`
	RelatedEntityID   string     `json:"related_entity_id"`
	TargetRoles       []string   `json:"target_roles"`
	Read              bool       `json:"read"`
	ActionRequired    bool       `json:"action_required"`
	ActionURL         string     `json:"action_url"`
	CreatedAt         time.Time  `json:"created_at"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
}

func ToNotificationResponse(n *model.Notification) NotificationResponse {
	roles := n.TargetRoles
	if roles == nil {
		roles = []string{}
	}
	return NotificationResponse{
		ID:                n.ID,
		Title:             n.Title,
		Description:       n.Description,
		Type:              string(n.Type),
		Priority:          string(n.Priority),
		TrialID:           n.TrialID,
		RelatedEntityType: n.RelatedEntityType,
		RelatedEntityID:   n.RelatedEntityID,
		TargetRoles:       roles,
		Read:              n.Read,
		ActionRequired:    n.ActionRequired,
		ActionURL:         n.ActionURL,
		CreatedAt:         n.CreatedAt,
		ReadAt:            n.ReadAt,
	}
}

func ToNotificationResponses(ns []model.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for i := range ns {
		out = append(out, ToNotificationResponse(&ns[i]))
	}
	return out
}

// MarkReadRequest carries snowflake ids as strings.
type MarkReadRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,required"`
}

func (r MarkReadRequest) ParseIDs() ([]int64, error) {
	ids := make([]int64, 0, len(r.IDs))
	for _, raw := range r.IDs {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, v)
	}
	return ids, nil
}

type MarkReadResponse struct {
	Updated  []NotificationResponse `json:"updated"`
	NotFound []string               `json:"not_found"`
}

func ToMarkReadResponse(updated []model.Notification, notFound []int64) MarkReadResponse {
	missing := make([]string, 0, len(notFound))
	for _, id := range notFound {
		missing = append(missing, strconv.FormatInt(id, 10))
	}
	return MarkReadResponse{
		Updated:  ToNotificationResponses(updated),
		NotFound: missing,
	}
}
