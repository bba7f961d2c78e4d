package model

import "time"

// RunStatus tracks a stage run through the ledger.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one ledger entry: a single execution of one pipeline stage.
// Drops maps a drop reason (e.g. "missing_weather", "target_outlier") to
// the number of rows removed for that reason.
type Run struct {
	ID         string         `json:"id"`
	Stage      string         `json:"stage"`
	Status     RunStatus      `json:"status"`
	Artifact   string         `json:"artifact,omitempty"`
	RowsIn     int            `json:"rows_in"`
	RowsOut    int            `json:"rows_out"`
	Drops      map[string]int `json:"drops,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}
