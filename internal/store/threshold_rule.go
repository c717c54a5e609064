package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"trialwatch.app/engine/core/db/query"
	"trialwatch.app/engine/internal/model"
)

type thresholdRuleStore struct {
	queries *query.Queries
}

func newThresholdRuleStore(queries *query.Queries) ThresholdRuleStore {
	return &thresholdRuleStore{queries: queries}
}

func (s *thresholdRuleStore) ListByTrial(ctx context.Context, trialID string) ([]model.ThresholdRule, error) {
	rows, err := s.queries.ListThresholdRulesForTrial(ctx, trialID)
	if err != nil {
		return nil, err
	}
	return toThresholdRuleModels(rows), nil
}

func (s *thresholdRuleStore) ListEnabledByTrial(ctx context.Context, trialID string) ([]model.ThresholdRule, error) {
	rows, err := s.queries.ListEnabledThresholdRulesForTrial(ctx, trialID)
	if err != nil {
		return nil, err
	}
	return toThresholdRuleModels(rows), nil
}

func (s *thresholdRuleStore) Get(ctx context.Context, trialID, metricName string) (*model.ThresholdRule, error) {
	row, err := s.queries.GetThresholdRule(ctx, trialID, metricName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toThresholdRuleModel(row), nil
}

func (s *thresholdRuleStore) Upsert(ctx context.Context, rule *model.ThresholdRule) error {
	direction := rule.Direction
	if direction == "" {
		direction = model.RuleDirectionUpper
	}
	row, err := s.queries.UpsertThresholdRule(ctx, query.UpsertThresholdRuleParams{
		ID:           rule.ID,
		TrialID:      rule.TrialID,
		MetricName:   rule.MetricName,
		Low:          rule.Low,
		Medium:       rule.Medium,
		High:         rule.High,
		Critical:     rule.Critical,
		Enabled:      rule.Enabled,
		Direction:    string(direction),
		Reference:    rule.Reference,
		AssignedRole: rule.AssignedRole,
	})
	if err != nil {
		return err
	}
	*rule = *toThresholdRuleModel(row)
	return nil
}

func toThresholdRuleModels(rows []query.ThresholdRule) []model.ThresholdRule {
	result := make([]model.ThresholdRule, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toThresholdRuleModel(row))
	}
	return result
}

func toThresholdRuleModel(row query.ThresholdRule) *model.ThresholdRule {
	return &model.ThresholdRule{
		ID:           row.ID,
		TrialID:      row.TrialID,
		MetricName:   row.MetricName,
		Low:          row.Low,
		Medium:       row.Medium,
		High:         row.High,
		Critical:     row.Critical,
		Enabled:      row.Enabled,
		Direction:    model.RuleDirection(row.Direction),
		Reference:    row.Reference,
		AssignedRole: row.AssignedRole,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
