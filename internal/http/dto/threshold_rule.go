package dto

import (
	"time"

	"trialwatch.app/engine/internal/model"
)

// PutThresholdRuleRequest requires every band so a missing field never reads
// as a zero threshold.
type PutThresholdRuleRequest struct {
	TrialID      string   `json:"trial_id" binding:"required"`
	Low          *float64 `json:"low" binding:"required"`
	Medium       *float64 `json:"medium" binding:"required"`
	High         *float64 `json:"high" binding:"required"`
	Critical     *float64 `json:"critical" binding:"required"`
	Enabled      *bool    `json:"enabled,omitempty"`
	Direction    string   `json:"direction,omitempty" binding:"omitempty,oneof=upper lower two_sided"`
	Reference    *float64 `json:"reference,omitempty"`
	AssignedRole *string  `json:"assigned_role,omitempty"`
}

func (r PutThresholdRuleRequest) ToModel(metric string) *model.ThresholdRule {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	return &model.ThresholdRule{
		TrialID:      r.TrialID,
		MetricName:   metric,
		Low:          *r.Low,
		Medium:       *r.Medium,
		High:         *r.High,
		Critical:     *r.Critical,
		Enabled:      enabled,
		Direction:    model.RuleDirection(r.Direction),
		Reference:    r.Reference,
		AssignedRole: r.AssignedRole,
	}
}

type ThresholdRuleResponse struct {
	ID           int64     `json:"id,string"`
	TrialID      string    `json:"trial_id"`
	MetricName   string    `json:"metric_name"`
	Low          float64   `json:"low"`
	Medium       float64   `json:"medium"`
	High         float64   `json:"high"`
	Critical     float64   `json:"critical"`
	Enabled      bool      `json:"enabled"`
	Direction    string    `json:"direction"`
	Reference    *float64  `json:"reference,omitempty"`
	AssignedRole *string   `json:"assigned_role,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ToThresholdRuleResponse(r *model.ThresholdRule) ThresholdRuleResponse {
	return ThresholdRuleResponse{
		ID:           r.ID,
		TrialID:      r.TrialID,
		MetricName:   r.MetricName,
		Low:          r.Low,
		Medium:       r.Medium,
		High:         r.High,
		Critical:     r.Critical,
		Enabled:      r.Enabled,
		Direction:    string(r.Direction),
		Reference:    r.Reference,
		AssignedRole: r.AssignedRole,
		UpdatedAt:    r.UpdatedAt,
	}
}

func ToThresholdRuleResponses(rules []model.ThresholdRule) []ThresholdRuleResponse {
	out := make([]ThresholdRuleResponse, 0, len(rules))
	for i := range rules {
		out = append(out, ToThresholdRuleResponse(&rules[i]))
	}
	return out
}
