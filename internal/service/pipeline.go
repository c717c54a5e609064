package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"trialwatch.app/engine/common/id"
	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/store"
)

type ImportRecord struct {
	RecordID string          `json:"record_id"`
	Data     json.RawMessage `json:"data"`
}

type ImportParams struct {
	TrialID string
	Domain  string
	Source  string
	Records []ImportRecord
}

type PipelineResult struct {
	Imported     int
	ImportErrors []ItemError
	Validation   *ValidationResult
	Materialize  *MaterializeResult
	Dispatches   []DispatchResult
}

// PipelineService runs validate → materialize → dispatch for freshly
// imported or re-submitted records.
type PipelineService interface {
	Import(ctx context.Context, params ImportParams) (*PipelineResult, error)
	Revalidate(ctx context.Context, params ValidateParams) (*PipelineResult, error)
}

type pipelineService struct {
	records    store.RecordStore
	validator  ValidatorService
	generator  TaskGeneratorService
	dispatcher DispatcherService
}

func NewPipelineService(records store.RecordStore, validator ValidatorService, generator TaskGeneratorService, dispatcher DispatcherService) PipelineService {
	return &pipelineService{
		records:    records,
		validator:  validator,
		generator:  generator,
		dispatcher: dispatcher,
	}
}

func (s *pipelineService) Import(ctx context.Context, params ImportParams) (*PipelineResult, error) {
	if params.TrialID == "" || params.Domain == "" || params.Source == "" {
		return nil, fmt.Errorf("%w: trial_id, domain, and source are required", ErrInvalidInput)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TrialID:   &params.TrialID,
		Domain:    &params.Domain,
		Source:    &params.Source,
		Component: "trialwatch.service.pipeline",
	})

	sc := logger.StartSpan(ctx, "pipeline.import")
	defer sc.End()
	ctx = sc.Context()

	var (
		importErrs []ItemError
		recordIDs  []string
	)
	for _, in := range params.Records {
		recordID := strings.TrimSpace(in.RecordID)
		if recordID == "" {
			importErrs = append(importErrs, ItemError{Key: "record", Err: fmt.Errorf("%w: record_id is required", ErrInvalidInput)})
			continue
		}
		if !json.Valid(in.Data) {
			slog.WarnContext(ctx, "rejecting record with invalid json", "record_id", recordID)
			importErrs = append(importErrs, ItemError{Key: recordID, Err: fmt.Errorf("%w: data is not valid json", ErrInvalidInput)})
			continue
		}
		record := &model.Record{
			ID:       id.New(),
			TrialID:  params.TrialID,
			Domain:   params.Domain,
			Source:   params.Source,
			RecordID: recordID,
			Data:     in.Data,
		}
		if err := s.records.Upsert(ctx, record); err != nil {
			slog.ErrorContext(ctx, "failed to persist record", "record_id", recordID, "error", err)
			importErrs = append(importErrs, ItemError{Key: recordID, Err: fmt.Errorf("persisting record: %w", err)})
			continue
		}
		recordIDs = append(recordIDs, recordID)
	}
	sc.SetInt("records.imported", len(recordIDs))

	result, err := s.Revalidate(ctx, ValidateParams{
		TrialID:   params.TrialID,
		Domain:    params.Domain,
		Source:    params.Source,
		RecordIDs: recordIDs,
	})
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}
	result.Imported = len(recordIDs)
	result.ImportErrors = importErrs
	return result, nil
}

func (s *pipelineService) Revalidate(ctx context.Context, params ValidateParams) (*PipelineResult, error) {
	validation, err := s.runValidate(ctx, params)
	if err != nil {
		return nil, err
	}

	materialized, err := s.runMaterialize(ctx, validation.Findings)
	if err != nil {
		return nil, err
	}

	result := &PipelineResult{
		Validation:  validation,
		Materialize: materialized,
	}

	for i := range materialized.Created {
		task := &materialized.Created[i]
		dispatch, err := s.dispatcher.Dispatch(ctx, task)
		if err != nil {
			// Left for the repair sweep.
			slog.ErrorContext(ctx, "failed to dispatch generated task", "task_id", task.ID, "error", err)
			continue
		}
		result.Dispatches = append(result.Dispatches, *dispatch)
	}

	return result, nil
}

func (s *pipelineService) runValidate(ctx context.Context, params ValidateParams) (*ValidationResult, error) {
	sc := logger.StartSpan(ctx, "pipeline.validate")
	defer sc.End()

	result, err := s.validator.Validate(sc.Context(), params)
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("validating records: %w", err)
	}
	sc.SetInt("findings", len(result.Findings))
	sc.SetInt("data_errors", len(result.DataErrors))
	return result, nil
}

func (s *pipelineService) runMaterialize(ctx context.Context, findings []model.Finding) (*MaterializeResult, error) {
	sc := logger.StartSpan(ctx, "pipeline.materialize")
	defer sc.End()

	result, err := s.generator.Materialize(sc.Context(), findings)
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("materializing tasks: %w", err)
	}
	sc.SetInt("tasks.created", len(result.Created))
	sc.SetInt("tasks.skipped", result.Skipped)
	return result, nil
}
