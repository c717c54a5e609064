package threshold

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"trialwatch.app/engine/internal/model"
)

// RuleSet is the YAML seed format for a trial's threshold rules:
//
//	trial_id: TR-001
//	assigned_role: EDC Data Manager
//	rules:
//	  - metric: ALT
//	    low: 40
//	    medium: 80
//	    high: 120
//	    critical: 200
type RuleSet struct {
	TrialID string `yaml:"trial_id"`
	// AssignedRole is the default for rules that name none.
	AssignedRole string      `yaml:"assigned_role"`
	Rules        []RuleEntry `yaml:"rules"`
}

// RuleEntry holds bands as pointers so an omitted band is an error rather
// than a zero threshold.
type RuleEntry struct {
	Metric       string   `yaml:"metric"`
	Low          *float64 `yaml:"low"`
	Medium       *float64 `yaml:"medium"`
	High         *float64 `yaml:"high"`
	Critical     *float64 `yaml:"critical"`
	Enabled      *bool    `yaml:"enabled"`
	Direction    string   `yaml:"direction"`
	Reference    *float64 `yaml:"reference"`
	AssignedRole string   `yaml:"assigned_role"`
}

// ParseRuleSet decodes a YAML rule set and checks every rule. All problems
// are reported together.
func ParseRuleSet(r io.Reader) ([]model.ThresholdRule, error) {
	var set RuleSet
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("rule set is empty")
		}
		return nil, fmt.Errorf("decoding rule set: %w", err)
	}

	set.TrialID = strings.TrimSpace(set.TrialID)
	if set.TrialID == "" {
		return nil, fmt.Errorf("trial_id is required")
	}

	var (
		rules []model.ThresholdRule
		errs  []error
		seen  = make(map[string]bool, len(set.Rules))
	)
	for i, entry := range set.Rules {
		rule, err := entry.toRule(set)
		if err == nil && seen[rule.MetricName] {
			err = fmt.Errorf("duplicate metric")
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i+1, entry.Metric, err))
			continue
		}
		seen[rule.MetricName] = true
		rules = append(rules, rule)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return rules, nil
}

func (e RuleEntry) toRule(set RuleSet) (model.ThresholdRule, error) {
	metric := strings.TrimSpace(e.Metric)
	if metric == "" {
		return model.ThresholdRule{}, fmt.Errorf("metric is required")
	}
	if e.Low == nil || e.Medium == nil || e.High == nil || e.Critical == nil {
		return model.ThresholdRule{}, fmt.Errorf("low, medium, high and critical are required")
	}

	rule := model.ThresholdRule{
		TrialID:    set.TrialID,
		MetricName: metric,
		Low:        *e.Low,
		Medium:     *e.Medium,
		High:       *e.High,
		Critical:   *e.Critical,
		Enabled:    e.Enabled == nil || *e.Enabled,
		Direction:  model.RuleDirection(e.Direction),
		Reference:  e.Reference,
	}
	if rule.Direction == "" {
		rule.Direction = model.RuleDirectionUpper
	}
	if role := firstNonEmpty(e.AssignedRole, set.AssignedRole); role != "" {
		rule.AssignedRole = &role
	}

	if err := Validate(rule); err != nil {
		return model.ThresholdRule{}, err
	}
	return rule, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
