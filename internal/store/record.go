package store

import (
	"context"
	"encoding/json"

	"trialwatch.app/engine/core/db/query"
	"trialwatch.app/engine/internal/model"
)

type recordStore struct {
	queries *query.Queries
}

func newRecordStore(queries *query.Queries) RecordStore {
	return &recordStore{queries: queries}
}

func (s *recordStore) Upsert(ctx context.Context, record *model.Record) error {
	row, err := s.queries.UpsertRecord(ctx, query.UpsertRecordParams{
		ID:       record.ID,
		TrialID:  record.TrialID,
		Domain:   record.Domain,
		Source:   record.Source,
		RecordID: record.RecordID,
		Data:     []byte(record.Data),
	})
	if err != nil {
		return err
	}
	*record = *toRecordModel(row)
	return nil
}

func (s *recordStore) ListByRecordIDs(ctx context.Context, trialID, domain, source string, recordIDs []string) ([]model.Record, error) {
	rows, err := s.queries.ListRecords(ctx, query.ListRecordsParams{
		TrialID:   trialID,
		Domain:    domain,
		Source:    source,
		RecordIDs: recordIDs,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toRecordModel(row))
	}
	return result, nil
}

func toRecordModel(row query.Record) *model.Record {
	return &model.Record{
		ID:         row.ID,
		TrialID:    row.TrialID,
		Domain:     row.Domain,
		Source:     row.Source,
		RecordID:   row.RecordID,
		Data:       json.RawMessage(row.Data),
		ImportedAt: row.ImportedAt,
	}
}
