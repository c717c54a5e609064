package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"trialwatch.app/engine/common/id"
	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/store"
)

// TaskCodePrefix starts every human facing task code.
const TaskCodePrefix = "TSK"

var dueInDays = map[model.TaskPriority]int{
	model.TaskPriorityCritical: 3,
	model.TaskPriorityHigh:     7,
	model.TaskPriorityMedium:   14,
	model.TaskPriorityLow:      30,
}

// DedupKey identifies the condition a finding describes. The observed value
// is deliberately not part of it.
func DedupKey(domain, recordID, metricName string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x1f})
	h.Write([]byte(recordID))
	h.Write([]byte{0x1f})
	h.Write([]byte(metricName))
	return hex.EncodeToString(h.Sum(nil))
}

func PriorityForSeverity(s model.Severity) model.TaskPriority {
	switch s {
	case model.SeverityCritical:
		return model.TaskPriorityCritical
	case model.SeverityHigh:
		return model.TaskPriorityHigh
	case model.SeverityMedium:
		return model.TaskPriorityMedium
	default:
		return model.TaskPriorityLow
	}
}

// DueDate is the detection date plus the response window for the priority.
func DueDate(detectedAt time.Time, p model.TaskPriority) time.Time {
	days, ok := dueInDays[p]
	if !ok {
		days = dueInDays[model.TaskPriorityLow]
	}
	return detectedAt.AddDate(0, 0, days)
}

type MaterializeResult struct {
	Created []model.Task
	Skipped int
	Errors  []ItemError
}

type TaskGeneratorService interface {
	Materialize(ctx context.Context, findings []model.Finding) (*MaterializeResult, error)
}

type taskGeneratorService struct {
	tasks       store.TaskStore
	defaultRole string
	now         func() time.Time
}

func NewTaskGeneratorService(tasks store.TaskStore, defaultRole string) TaskGeneratorService {
	return &taskGeneratorService{
		tasks:       tasks,
		defaultRole: defaultRole,
		now:         time.Now,
	}
}

func (s *taskGeneratorService) Materialize(ctx context.Context, findings []model.Finding) (*MaterializeResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "trialwatch.service.task_generator"})

	result := &MaterializeResult{}
	for _, f := range collapseFindings(findings) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		key := DedupKey(f.Domain, f.RecordID, f.MetricName)
		task := s.buildTask(f, key)

		created, err := s.tasks.CreateIfAbsent(ctx, task)
		if err != nil {
			slog.ErrorContext(ctx, "failed to persist generated task",
				"dedup_key", key, "record_id", f.RecordID, "metric", f.MetricName, "error", err)
			result.Errors = append(result.Errors, ItemError{Key: key, Err: fmt.Errorf("creating task: %w", err)})
			continue
		}
		if !created {
			slog.DebugContext(ctx, "open task already tracks condition", "dedup_key", key)
			result.Skipped++
			continue
		}

		slog.InfoContext(ctx, "task generated",
			"task_id", task.ID, "task_code", task.TaskCode, "priority", task.Priority, "dedup_key", key)
		result.Created = append(result.Created, *task)
	}

	return result, nil
}

func (s *taskGeneratorService) buildTask(f model.Finding, key string) *model.Task {
	taskID := id.New()
	priority := PriorityForSeverity(f.Severity)

	detectedAt := f.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = s.now()
	}

	status := model.TaskStatusNotStarted
	var role *string
	switch {
	case f.AssignedRole != nil && *f.AssignedRole != "":
		role = f.AssignedRole
	case s.defaultRole != "":
		role = &s.defaultRole
	}
	if role != nil {
		status = model.TaskStatusAssigned
	}

	detectionID := strconv.FormatInt(f.RuleID, 10) + ":" + f.RecordID
	domain, recordID, source, metric := f.Domain, f.RecordID, f.Source, f.MetricName

	return &model.Task{
		ID:           taskID,
		TaskCode:     id.Code(TaskCodePrefix, taskID),
		Title:        fmt.Sprintf("%s %s deviation on %s record %s", f.Severity, f.MetricName, f.Domain, f.RecordID),
		Description:  describeFinding(f),
		Priority:     priority,
		Status:       status,
		TrialID:      f.TrialID,
		DetectionID:  &detectionID,
		AssignedRole: role,
		Domain:       &domain,
		RecordID:     &recordID,
		Source:       &source,
		MetricName:   &metric,
		DedupKey:     &key,
		DueDate:      DueDate(detectedAt, priority),
	}
}

func describeFinding(f model.Finding) string {
	desc := fmt.Sprintf("%s reported %s = %s for record %s (trial %s, source %s).",
		f.Domain,
		f.MetricName,
		strconv.FormatFloat(f.ObservedValue, 'f', -1, 64),
		f.RecordID,
		f.TrialID,
		f.Source,
	)
	if f.BandInput != f.ObservedValue {
		desc += fmt.Sprintf(" Deviation %s falls in the %s band.", strconv.FormatFloat(f.BandInput, 'f', -1, 64), f.Severity)
	} else {
		desc += fmt.Sprintf(" Value falls in the %s band.", f.Severity)
	}
	return desc
}

// collapseFindings keeps one finding per dedup key, preferring the most
// severe. Input order is preserved otherwise.
func collapseFindings(findings []model.Finding) []model.Finding {
	index := make(map[string]int, len(findings))
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		key := DedupKey(f.Domain, f.RecordID, f.MetricName)
		if i, ok := index[key]; ok {
			if f.Severity.Rank() > out[i].Severity.Rank() {
				out[i] = f
			}
			continue
		}
		index[key] = len(out)
		out = append(out, f)
	}
	return out
}
