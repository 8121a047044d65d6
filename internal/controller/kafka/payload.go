package kafka

import (
	"time"

	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
)

// Payload is the wire shape of messages on the sync topic. Two kinds share
// it: a processing trigger (TableFilter at most) and a sync request for one
// record. A set TableName marks a sync request.
type Payload struct {
	TableFilter string    `json:"table_filter,omitempty"`
	RequestedAt time.Time `json:"requested_at,omitempty"`

	TableName string           `json:"table_name,omitempty"`
	RecordID  string           `json:"record_id,omitempty"`
	Operation entity.Operation `json:"operation,omitempty"`
	Record    map[string]any   `json:"payload,omitempty"`
	UseQueue  bool             `json:"use_queue,omitempty"`
}
