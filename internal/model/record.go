package model

import (
	"encoding/json"
	"time"
)

// Record is one imported clinical data row. Data is the raw JSON field map.
type Record struct {
	ID         int64           `json:"id,string"`
	TrialID    string          `json:"trial_id"`
	Domain     string          `json:"domain"`
	Source     string          `json:"source"`
	RecordID   string          `json:"record_id"`
	Data       json.RawMessage `json:"data"`
	ImportedAt time.Time       `json:"imported_at"`
}
