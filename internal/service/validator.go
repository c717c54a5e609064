package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/store"
	"trialwatch.app/engine/internal/threshold"
)

type ValidateParams struct {
	TrialID   string   `json:"trial_id"`
	Domain    string   `json:"domain"`
	Source    string   `json:"source"`
	RecordIDs []string `json:"record_ids"`
}

type ValidationResult struct {
	Findings   []model.Finding
	DataErrors []DataError
}

type ValidatorService interface {
	Validate(ctx context.Context, params ValidateParams) (*ValidationResult, error)
}

type validatorService struct {
	rules   store.ThresholdRuleStore
	records store.RecordStore
}

func NewValidatorService(rules store.ThresholdRuleStore, records store.RecordStore) ValidatorService {
	return &validatorService{
		rules:   rules,
		records: records,
	}
}

func (s *validatorService) Validate(ctx context.Context, params ValidateParams) (*ValidationResult, error) {
	if params.TrialID == "" || params.Domain == "" || params.Source == "" {
		return nil, fmt.Errorf("%w: trial_id, domain, and source are required", ErrInvalidInput)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TrialID:   &params.TrialID,
		Domain:    &params.Domain,
		Source:    &params.Source,
		Component: "trialwatch.service.validator",
	})

	recordIDs := uniqueStrings(params.RecordIDs)
	result := &ValidationResult{}
	if len(recordIDs) == 0 {
		return result, nil
	}

	rules, err := s.rules.ListEnabledByTrial(ctx, params.TrialID)
	if err != nil {
		return nil, fmt.Errorf("loading threshold rules: %w", err)
	}
	byMetric := make(map[string]model.ThresholdRule, len(rules))
	for _, rule := range rules {
		if err := threshold.Validate(rule); err != nil {
			slog.WarnContext(ctx, "skipping misconfigured threshold rule", "metric", rule.MetricName, "rule_id", rule.ID, "error", err)
			continue
		}
		byMetric[rule.MetricName] = rule
	}

	records, err := s.records.ListByRecordIDs(ctx, params.TrialID, params.Domain, params.Source, recordIDs)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	found := make(map[string]model.Record, len(records))
	for _, r := range records {
		found[r.RecordID] = r
	}

	for _, recordID := range recordIDs {
		record, ok := found[recordID]
		if !ok {
			result.DataErrors = append(result.DataErrors, DataError{RecordID: recordID, Reason: "record not found"})
			slog.WarnContext(ctx, "record not found for validation", "record_id", recordID)
			continue
		}

		fields, err := decodeFields(record.Data)
		if err != nil {
			result.DataErrors = append(result.DataErrors, DataError{RecordID: recordID, Reason: err.Error()})
			slog.WarnContext(ctx, "skipping unparseable record", "record_id", recordID, "error", err)
			continue
		}

		result.Findings = append(result.Findings, classifyRecord(record, fields, byMetric)...)
	}

	sort.Slice(result.Findings, func(i, j int) bool {
		a, b := result.Findings[i], result.Findings[j]
		if a.RecordID != b.RecordID {
			return a.RecordID < b.RecordID
		}
		return a.MetricName < b.MetricName
	})

	slog.InfoContext(ctx, "validation complete",
		"records", len(recordIDs),
		"findings", len(result.Findings),
		"data_errors", len(result.DataErrors))

	return result, nil
}

func classifyRecord(record model.Record, fields map[string]any, rules map[string]model.ThresholdRule) []model.Finding {
	var findings []model.Finding
	for name, raw := range fields {
		rule, ok := rules[name]
		if !ok {
			continue
		}
		value, ok := numericValue(raw)
		if !ok {
			continue
		}
		input, severity, breached := threshold.Classify(rule, value)
		if !breached {
			continue
		}
		findings = append(findings, model.Finding{
			TrialID:       record.TrialID,
			Domain:        record.Domain,
			Source:        record.Source,
			RecordID:      record.RecordID,
			MetricName:    name,
			ObservedValue: value,
			BandInput:     input,
			Severity:      severity,
			RuleID:        rule.ID,
			AssignedRole:  rule.AssignedRole,
			DetectedAt:    record.ImportedAt,
		})
	}
	return findings
}

func decodeFields(data json.RawMessage) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty record data")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decoding record data: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("record data is not an object")
	}
	return fields, nil
}

// numericValue accepts JSON numbers and numeric strings. Everything else is
// not a metric reading.
func numericValue(raw any) (float64, bool) {
	var (
		v   float64
		err error
	)
	switch t := raw.(type) {
	case json.Number:
		v, err = t.Float64()
	case string:
		v, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
