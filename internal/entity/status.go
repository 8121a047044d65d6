package entity

// Status represents the lifecycle state of a queue item.
type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Completed  Status = "completed"
	Failed     Status = "failed"
	Skipped    Status = "skipped"
)

// Terminal reports whether no further transition may change the status.
// Completed and skipped items never re-enter processing; failed items are
// terminal once the retry budget is exhausted, which the store encodes by
// clearing next_retry_at.
func (s Status) Terminal() bool {
	return s == Completed || s == Skipped
}
