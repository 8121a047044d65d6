package dto

import (
	"time"

	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
)

// StatusRequest selects which optional sections a status report includes.
type StatusRequest struct {
	IncludeByTable      bool `json:"include_by_table"`
	IncludeRecentErrors bool `json:"include_recent_errors"`
	ErrorLimit          int  `json:"error_limit"`
}

// TableCounts is the per-table pending/failed breakdown.
type TableCounts struct {
	TableName string `json:"table_name"`
	Pending   int    `json:"pending"`
	Failed    int    `json:"failed"`
}

// FailedItem is one recent failure with enough detail for diagnosis without
// consulting logs.
type FailedItem struct {
	ID           string     `json:"id"`
	TableName    string     `json:"table_name"`
	RecordID     string     `json:"record_id"`
	Operation    string     `json:"operation"`
	RetryCount   int        `json:"retry_count"`
	ErrorMessage string     `json:"error_message"`
	ErrorDetails string     `json:"error_details,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// StatusReport is the aggregated queue health view.
type StatusReport struct {
	Pending           int `json:"pending"`
	Processing        int `json:"processing"`
	CompletedLastHour int `json:"completed_last_hour"`
	FailedLastHour    int `json:"failed_last_hour"`

	OldestPendingAt *time.Time `json:"oldest_pending_at,omitempty"`
	LastProcessedAt *time.Time `json:"last_processed_at,omitempty"`

	ByTable      []TableCounts        `json:"by_table,omitempty"`
	RecentErrors []FailedItem         `json:"recent_errors,omitempty"`
	Configs      []*entity.SyncConfig `json:"configs"`
}
