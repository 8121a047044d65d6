package dto

import "github.com/splitleasesharath/splitlease-sub017/internal/entity"

// EnqueueItem is one ordered unit of an enqueue request.
type EnqueueItem struct {
	Sequence      int              `json:"sequence"`
	Table         string           `json:"table"`
	RecordID      string           `json:"record_id"`
	Operation     entity.Operation `json:"operation"`
	Payload       map[string]any   `json:"payload"`
	DestinationID *string          `json:"destination_id,omitempty"`
}

// ProcessResult aggregates the outcome of one processing pass.
type ProcessResult struct {
	Processed int `json:"processed"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// SyncSingle describes a one-record sync request. When UseQueue is set the
// record is enqueued for the next pass instead of being delivered inline.
type SyncSingle struct {
	TableName string           `json:"table_name"`
	RecordID  string           `json:"record_id"`
	Operation entity.Operation `json:"operation"`
	UseQueue  bool             `json:"use_queue"`
}

// CleanupRequest carries per-status age cutoffs in days. Zero means the
// default for that status.
type CleanupRequest struct {
	CompletedOlderThanDays int `json:"completed_older_than_days"`
	FailedOlderThanDays    int `json:"failed_older_than_days"`
	SkippedOlderThanDays   int `json:"skipped_older_than_days"`
}

// CleanupResult reports how many rows each status purge removed.
type CleanupResult struct {
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
	Archived  int   `json:"archived"`
}
