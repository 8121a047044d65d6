package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxRetries is the retry budget assigned to new queue items.
const DefaultMaxRetries = 3

// QueueItem is one durable unit of outbound sync work.
type QueueItem struct {
	ID         uuid.UUID      `json:"id"`
	TableName  string         `json:"table_name"`
	RecordID   string         `json:"record_id"`
	Operation  Operation      `json:"operation"`
	Payload    map[string]any `json:"payload"`
	Status     Status         `json:"status"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`

	ErrorMessage *string `json:"error_message,omitempty"`
	ErrorDetails *string `json:"error_details,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`

	ExternalResponse map[string]any `json:"external_response,omitempty"`

	// IdempotencyKey lets the destination deduplicate repeated deliveries.
	// It is derived at enqueue time and never cross-checked locally.
	IdempotencyKey string `json:"idempotency_key"`
}

// NewIdempotencyKey derives the dedup key from the item identity and its
// creation time.
func NewIdempotencyKey(table, recordID string, createdAt time.Time) string {
	return fmt.Sprintf("%s:%s:%d", table, recordID, createdAt.Unix())
}

// PendingItem pairs a fetched queue item with the sync config of its source
// table. Config is nil when the table has no config row; such items are still
// fetched so the processor can mark them skipped instead of leaving them
// stuck at pending.
type PendingItem struct {
	Item   *QueueItem
	Config *SyncConfig
}
