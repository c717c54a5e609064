package query

import "context"

const thresholdRuleColumns = `id, trial_id, metric_name, low, medium, high, critical, enabled, direction, reference, assigned_role, created_at, updated_at`

const listThresholdRulesForTrial = `SELECT ` + thresholdRuleColumns + `
FROM threshold_rules
WHERE trial_id = $1
ORDER BY metric_name`

func (q *Queries) ListThresholdRulesForTrial(ctx context.Context, trialID string) ([]ThresholdRule, error) {
	return collectAll[ThresholdRule](ctx, q.db, listThresholdRulesForTrial, trialID)
}

const listEnabledThresholdRulesForTrial = `SELECT ` + thresholdRuleColumns + `
FROM threshold_rules
WHERE trial_id = $1 AND enabled
ORDER BY metric_name`

func (q *Queries) ListEnabledThresholdRulesForTrial(ctx context.Context, trialID string) ([]ThresholdRule, error) {
	return collectAll[ThresholdRule](ctx, q.db, listEnabledThresholdRulesForTrial, trialID)
}

const getThresholdRule = `SELECT ` + thresholdRuleColumns + `
FROM threshold_rules
WHERE trial_id = $1 AND metric_name = $2`

func (q *Queries) GetThresholdRule(ctx context.Context, trialID, metricName string) (ThresholdRule, error) {
	return collectOne[ThresholdRule](ctx, q.db, getThresholdRule, trialID, metricName)
}

type UpsertThresholdRuleParams struct {
	ID           int64
	TrialID      string
	MetricName   string
	Low          float64
	Medium       float64
	High         float64
	Critical     float64
	Enabled      bool
	Direction    string
	Reference    *float64
	AssignedRole *string
}

const upsertThresholdRule = `INSERT INTO threshold_rules (
	id, trial_id, metric_name, low, medium, high, critical, enabled, direction, reference, assigned_role
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (trial_id, metric_name) DO UPDATE SET
	low = EXCLUDED.low,
	medium = EXCLUDED.medium,
	high = EXCLUDED.high,
	critical = EXCLUDED.critical,
	enabled = EXCLUDED.enabled,
	direction = EXCLUDED.direction,
	reference = EXCLUDED.reference,
	assigned_role = EXCLUDED.assigned_role,
	updated_at = now()
RETURNING ` + thresholdRuleColumns

func (q *Queries) UpsertThresholdRule(ctx context.Context, arg UpsertThresholdRuleParams) (ThresholdRule, error) {
	return collectOne[ThresholdRule](ctx, q.db, upsertThresholdRule,
		arg.ID,
		arg.TrialID,
		arg.MetricName,
		arg.Low,
		arg.Medium,
		arg.High,
		arg.Critical,
		arg.Enabled,
		arg.Direction,
		arg.Reference,
		arg.AssignedRole,
	)
}
