package query

import "context"

const recordColumns = `id, trial_id, domain, source, record_id, data, imported_at`

type UpsertRecordParams struct {
	ID       int64
	TrialID  string
	Domain   string
	Source   string
	RecordID string
	Data     []byte
}

// Re-importing a record replaces its data and refreshes imported_at only when
// the payload actually changed, so unchanged re-imports keep their detection date.
const upsertRecord = `INSERT INTO records (id, trial_id, domain, source, record_id, data)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (trial_id, domain, source, record_id) DO UPDATE SET
	data = EXCLUDED.data,
	imported_at = CASE WHEN records.data IS DISTINCT FROM EXCLUDED.data THEN now() ELSE records.imported_at END
RETURNING ` + recordColumns

func (q *Queries) UpsertRecord(ctx context.Context, arg UpsertRecordParams) (Record, error) {
	return collectOne[Record](ctx, q.db, upsertRecord,
		arg.ID,
		arg.TrialID,
		arg.Domain,
		arg.Source,
		arg.RecordID,
		arg.Data,
	)
}

type ListRecordsParams struct {
	TrialID   string
	Domain    string
	Source    string
	RecordIDs []string
}

const listRecords = `SELECT ` + recordColumns + `
FROM records
WHERE trial_id = $1 AND domain = $2 AND source = $3 AND record_id = ANY($4::text[])
ORDER BY record_id`

func (q *Queries) ListRecords(ctx context.Context, arg ListRecordsParams) ([]Record, error) {
	return collectAll[Record](ctx, q.db, listRecords, arg.TrialID, arg.Domain, arg.Source, arg.RecordIDs)
}
