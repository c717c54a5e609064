package model

import "time"

type RuleDirection string

const (
	// RuleDirectionUpper bands the raw value: higher is worse.
	RuleDirectionUpper RuleDirection = "upper"
	// RuleDirectionLower bands how far the value fell below Reference.
	RuleDirectionLower RuleDirection = "lower"
	// RuleDirectionTwoSided bands the absolute deviation from Reference.
	RuleDirectionTwoSided RuleDirection = "two_sided"
)

func (d RuleDirection) Valid() bool {
	switch d {
	case RuleDirectionUpper, RuleDirectionLower, RuleDirectionTwoSided:
		return true
	}
	return false
}

type ThresholdRule struct {
	ID           int64         `json:"id,string"`
	TrialID      string        `json:"trial_id"`
	MetricName   string        `json:"metric_name"`
	Low          float64       `json:"low"`
	Medium       float64       `json:"medium"`
	High         float64       `json:"high"`
	Critical     float64       `json:"critical"`
	Enabled      bool          `json:"enabled"`
	Direction    RuleDirection `json:"direction"`
	Reference    *float64      `json:"reference,omitempty"`
	AssignedRole *string       `json:"assigned_role,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
