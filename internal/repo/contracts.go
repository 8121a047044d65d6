package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
)

// FailureMark carries the precomputed outcome of a failed delivery attempt.
// The retry scheduler decides the values; the store only persists them in a
// single atomic update.
type FailureMark struct {
	Message    string
	Details    string
	RetryCount int
	// NextRetryAt is set while retry budget remains; nil marks the failure
	// permanent.
	NextRetryAt *time.Time
	Terminal    bool
}

// QueueCounts is the raw aggregation the status reporter assembles from.
type QueueCounts struct {
	ByStatus        map[entity.Status]int
	OldestPendingAt *time.Time
	LastProcessedAt *time.Time
}

type (
	// QueueRepo is the durable queue store. Every mutating operation is one
	// atomic update keyed by item id. A store error is fatal to the calling
	// batch, it is never swallowed per item.
	QueueRepo interface {
		Enqueue(ctx context.Context, item *entity.QueueItem) (uuid.UUID, error)
		// FetchPending reads up to limit due pending items oldest-first. Each
		// item is joined to its table's sync config; configless items come
		// back with a nil config. Fetching does not claim: the claim is the
		// MarkProcessing update.
		FetchPending(ctx context.Context, limit int, tableFilter string) ([]*entity.PendingItem, error)
		// FetchRetryable reads previously failed items that still have retry
		// budget and whose backoff has elapsed (or all of them when force is
		// set).
		FetchRetryable(ctx context.Context, limit int, force bool) ([]*entity.PendingItem, error)
		// MarkProcessing flips one pending item to processing. It returns
		// errs.ErrAlreadyClaimed when a concurrent invocation got there
		// first.
		MarkProcessing(ctx context.Context, id uuid.UUID) error
		MarkCompleted(ctx context.Context, id uuid.UUID, response map[string]any) error
		MarkFailed(ctx context.Context, id uuid.UUID, mark FailureMark) error
		MarkSkipped(ctx context.Context, id uuid.UUID, reason string) error
		Counts(ctx context.Context, lastHourSince time.Time) (*QueueCounts, map[entity.Status]int, error)
		CountsByTable(ctx context.Context) ([]dto.TableCounts, error)
		RecentFailed(ctx context.Context, limit int) ([]dto.FailedItem, error)
		// Purge deletes terminal items older than cutoff, judged by
		// processed_at for completed/skipped and created_at for failed.
		// Pending and processing rows are never deleted.
		Purge(ctx context.Context, status entity.Status, cutoff time.Time) ([]*entity.QueueItem, error)
	}

	// SyncConfigRepo reads the externally owned per-table sync policy.
	SyncConfigRepo interface {
		GetByTable(ctx context.Context, table string) (*entity.SyncConfig, error)
		ListEnabled(ctx context.Context) ([]*entity.SyncConfig, error)
	}

	// RecordRepo accesses business records in the primary store: reading a
	// record for delivery and writing destination linkage back.
	RecordRepo interface {
		GetRecord(ctx context.Context, table, recordID string) (map[string]any, error)
		SetDestinationID(ctx context.Context, table, recordID, destinationID string) error
		GetReferenceList(ctx context.Context, table, recordID, column string) ([]string, error)
		SetReferenceList(ctx context.Context, table, recordID, column string, refs []string) error
	}

	// ArchiveRepo stores purged queue items outside the database before they
	// are deleted.
	ArchiveRepo interface {
		ArchiveItems(ctx context.Context, key string, items []*entity.QueueItem) error
	}

	// Transactor runs f inside one database transaction.
	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
