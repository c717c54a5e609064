package dto

import (
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/service"
)

type ImportRecordsRequest struct {
	TrialID string                 `json:"trial_id" binding:"required"`
	Domain  string                 `json:"domain" binding:"required"`
	Source  string                 `json:"source" binding:"required"`
	Records []service.ImportRecord `json:"records" binding:"required,min=1"`
}

type ValidateRecordsRequest struct {
	TrialID   string   `json:"trial_id" binding:"required"`
	Domain    string   `json:"domain" binding:"required"`
	Source    string   `json:"source" binding:"required"`
	RecordIDs []string `json:"record_ids,omitempty"`
}

type ItemErrorResponse struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

func ToItemErrors(errs []service.ItemError) []ItemErrorResponse {
	out := make([]ItemErrorResponse, 0, len(errs))
	for _, e := range errs {
		out = append(out, ItemErrorResponse{Key: e.Key, Error: e.Err.Error()})
	}
	return out
}

type PipelineResponse struct {
	Imported             int                 `json:"imported"`
	ImportErrors         []ItemErrorResponse `json:"import_errors"`
	Findings             []model.Finding     `json:"findings"`
	DataErrors           []service.DataError `json:"data_errors"`
	TasksCreated         []TaskResponse      `json:"tasks_created"`
	TasksSkipped         int                 `json:"tasks_skipped"`
	TaskErrors           []ItemErrorResponse `json:"task_errors"`
	NotificationsCreated int                 `json:"notifications_created"`
	NotificationErrors   []ItemErrorResponse `json:"notification_errors"`
}

func ToPipelineResponse(r *service.PipelineResult) PipelineResponse {
	resp := PipelineResponse{
		Imported:           r.Imported,
		ImportErrors:       ToItemErrors(r.ImportErrors),
		Findings:           []model.Finding{},
		DataErrors:         []service.DataError{},
		TasksCreated:       []TaskResponse{},
		TaskErrors:         []ItemErrorResponse{},
		NotificationErrors: []ItemErrorResponse{},
	}
	if r.Validation != nil {
		if r.Validation.Findings != nil {
			resp.Findings = r.Validation.Findings
		}
		if r.Validation.DataErrors != nil {
			resp.DataErrors = r.Validation.DataErrors
		}
	}
	if r.Materialize != nil {
		resp.TasksCreated = ToTaskResponses(r.Materialize.Created)
		resp.TasksSkipped = r.Materialize.Skipped
		resp.TaskErrors = ToItemErrors(r.Materialize.Errors)
	}
	for _, d := range r.Dispatches {
		resp.NotificationsCreated += len(d.Created)
		resp.NotificationErrors = append(resp.NotificationErrors, ToItemErrors(d.Errors)...)
	}
	return resp
}
