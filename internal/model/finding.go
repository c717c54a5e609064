package model

import "time"

type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Rank orders severities; unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Finding is a threshold breach for one record and metric. It is never persisted.
type Finding struct {
	TrialID       string    `json:"trial_id"`
	Domain        string    `json:"domain"`
	Source        string    `json:"source"`
	RecordID      string    `json:"record_id"`
	MetricName    string    `json:"metric_name"`
	ObservedValue float64   `json:"observed_value"`
	BandInput     float64   `json:"band_input"`
	Severity      Severity  `json:"severity"`
	RuleID        int64     `json:"rule_id,string"`
	AssignedRole  *string   `json:"assigned_role,omitempty"`
	DetectedAt    time.Time `json:"detected_at"`
}
