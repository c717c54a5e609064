package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"trialwatch.app/engine/common/id"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/store"
	"trialwatch.app/engine/internal/threshold"
)

type ImportRulesResult struct {
	Saved  []model.ThresholdRule
	Errors []ItemError
}

type ThresholdRuleService interface {
	List(ctx context.Context, trialID string) ([]model.ThresholdRule, error)
	Put(ctx context.Context, rule *model.ThresholdRule) error
	Import(ctx context.Context, rules []model.ThresholdRule) (*ImportRulesResult, error)
}

type thresholdRuleService struct {
	rules store.ThresholdRuleStore
}

func NewThresholdRuleService(rules store.ThresholdRuleStore) ThresholdRuleService {
	return &thresholdRuleService{rules: rules}
}

func (s *thresholdRuleService) List(ctx context.Context, trialID string) ([]model.ThresholdRule, error) {
	if strings.TrimSpace(trialID) == "" {
		return nil, fmt.Errorf("%w: trial_id is required", ErrInvalidInput)
	}
	return s.rules.ListByTrial(ctx, trialID)
}

// Put creates or replaces the rule for (trial, metric).
func (s *thresholdRuleService) Put(ctx context.Context, rule *model.ThresholdRule) error {
	rule.TrialID = strings.TrimSpace(rule.TrialID)
	rule.MetricName = strings.TrimSpace(rule.MetricName)
	if rule.TrialID == "" || rule.MetricName == "" {
		return fmt.Errorf("%w: trial_id and metric_name are required", ErrInvalidRule)
	}
	if rule.Direction == "" {
		rule.Direction = model.RuleDirectionUpper
	}
	if err := threshold.Validate(*rule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if rule.ID == 0 {
		rule.ID = id.New()
	}
	if err := s.rules.Upsert(ctx, rule); err != nil {
		return fmt.Errorf("saving threshold rule: %w", err)
	}
	slog.InfoContext(ctx, "threshold rule saved", "trial_id", rule.TrialID, "metric", rule.MetricName, "enabled", rule.Enabled)
	return nil
}

func (s *thresholdRuleService) Import(ctx context.Context, rules []model.ThresholdRule) (*ImportRulesResult, error) {
	result := &ImportRulesResult{}
	for i := range rules {
		rule := rules[i]
		if err := s.Put(ctx, &rule); err != nil {
			result.Errors = append(result.Errors, ItemError{Key: rule.TrialID + "/" + rule.MetricName, Err: err})
			continue
		}
		result.Saved = append(result.Saved, rule)
	}
	return result, nil
}
