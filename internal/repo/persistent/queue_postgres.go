package persistent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	"github.com/splitleasesharath/splitlease-sub017/internal/repo"
	"github.com/splitleasesharath/splitlease-sub017/pkg/postgres"
	"github.com/splitleasesharath/splitlease-sub017/pkg/types/errs"
)

const (
	// Table
	queueTable = "sync_queue"

	// Columns
	queueIDColumn               = "id"
	queueTableNameColumn        = "table_name"
	queueRecordIDColumn         = "record_id"
	queueOperationColumn        = "operation"
	queuePayloadColumn          = "payload"
	queueStatusColumn           = "status"
	queueRetryCountColumn       = "retry_count"
	queueMaxRetriesColumn       = "max_retries"
	queueErrorMessageColumn     = "error_message"
	queueErrorDetailsColumn     = "error_details"
	queueCreatedAtColumn        = "created_at"
	queueProcessedAtColumn      = "processed_at"
	queueNextRetryAtColumn      = "next_retry_at"
	queueExternalResponseColumn = "external_response"
	queueIdempotencyKeyColumn   = "idempotency_key"
)

var queueColumns = []string{
	queueIDColumn,
	queueTableNameColumn,
	queueRecordIDColumn,
	queueOperationColumn,
	queuePayloadColumn,
	queueStatusColumn,
	queueRetryCountColumn,
	queueMaxRetriesColumn,
	queueErrorMessageColumn,
	queueErrorDetailsColumn,
	queueCreatedAtColumn,
	queueProcessedAtColumn,
	queueNextRetryAtColumn,
	queueExternalResponseColumn,
	queueIdempotencyKeyColumn,
}

type QueueRepo struct {
	*postgres.Postgres
}

func NewQueueRepo(pg *postgres.Postgres) *QueueRepo {
	return &QueueRepo{pg}
}

func (r *QueueRepo) Enqueue(ctx context.Context, item *entity.QueueItem) (uuid.UUID, error) {
	payload, err := json.Marshal(item.Payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("QueueRepo - Enqueue - json.Marshal: %w", err)
	}

	sql, args, err := r.Builder.
		Insert(queueTable).
		Columns(
			queueIDColumn,
			queueTableNameColumn,
			queueRecordIDColumn,
			queueOperationColumn,
			queuePayloadColumn,
			queueStatusColumn,
			queueRetryCountColumn,
			queueMaxRetriesColumn,
			queueCreatedAtColumn,
			queueIdempotencyKeyColumn,
		).
		Values(
			item.ID,
			item.TableName,
			item.RecordID,
			item.Operation,
			payload,
			item.Status,
			item.RetryCount,
			item.MaxRetries,
			item.CreatedAt,
			item.IdempotencyKey,
		).
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("QueueRepo - Enqueue - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return uuid.Nil, fmt.Errorf("QueueRepo - Enqueue - executor.Exec: %w", err)
	}

	return item.ID, nil
}

func (r *QueueRepo) FetchPending(ctx context.Context, limit int, tableFilter string) ([]*entity.PendingItem, error) {
	now := time.Now()

	conds := squirrel.And{
		squirrel.Eq{"q." + queueStatusColumn: entity.Pending},
		squirrel.Or{
			squirrel.Eq{"q." + queueNextRetryAtColumn: nil},
			squirrel.LtOrEq{"q." + queueNextRetryAtColumn: now},
		},
	}
	if tableFilter != "" {
		conds = append(conds, squirrel.Eq{"q." + queueTableNameColumn: tableFilter})
	}

	return r.fetchWithConfig(ctx, conds, limit)
}

func (r *QueueRepo) FetchRetryable(ctx context.Context, limit int, force bool) ([]*entity.PendingItem, error) {
	conds := squirrel.And{
		squirrel.Eq{"q." + queueStatusColumn: entity.Pending},
		squirrel.GtOrEq{"q." + queueRetryCountColumn: 1},
		squirrel.Expr("q." + queueRetryCountColumn + " < q." + queueMaxRetriesColumn),
	}
	if !force {
		conds = append(conds, squirrel.LtOrEq{"q." + queueNextRetryAtColumn: time.Now()})
	}

	return r.fetchWithConfig(ctx, conds, limit)
}

func (r *QueueRepo) fetchWithConfig(ctx context.Context, conds squirrel.And, limit int) ([]*entity.PendingItem, error) {
	cols := make([]string, 0, len(queueColumns)+9)
	for _, c := range queueColumns {
		cols = append(cols, "q."+c)
	}
	cols = append(cols,
		"c."+configSupabaseTableColumn,
		"c."+configTargetWorkflowColumn,
		"c."+configTargetObjectTypeColumn,
		"c."+configEnabledColumn,
		"c."+configSyncOnInsertColumn,
		"c."+configSyncOnUpdateColumn,
		"c."+configSyncOnDeleteColumn,
		"c."+configFieldMappingColumn,
		"c."+configExcludedFieldsColumn,
	)

	sql, args, err := r.Builder.
		Select(cols...).
		From(queueTable + " q").
		LeftJoin(configTable + " c ON c." + configSupabaseTableColumn + " = q." + queueTableNameColumn).
		Where(conds).
		OrderBy("q." + queueCreatedAtColumn + " ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("QueueRepo - fetchWithConfig - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("QueueRepo - fetchWithConfig - executor.Query: %w", err)
	}
	defer rows.Close()

	items := make([]*entity.PendingItem, 0, limit)
	for rows.Next() {
		pending, err := scanPendingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("QueueRepo - fetchWithConfig - scanPendingItem: %w", err)
		}
		items = append(items, pending)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("QueueRepo - fetchWithConfig - rows.Err: %w", err)
	}

	return items, nil
}

// MarkProcessing claims the item. The status-conditional update is the claim
// token: of two overlapping invocations only one sees a row transition, the
// other gets ErrAlreadyClaimed and must leave the item alone.
func (r *QueueRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Update(queueTable).
		Set(queueStatusColumn, entity.Processing).
		Where(squirrel.And{
			squirrel.Eq{queueIDColumn: id},
			squirrel.Eq{queueStatusColumn: entity.Pending},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("QueueRepo - MarkProcessing - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("QueueRepo - MarkProcessing - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("QueueRepo - MarkProcessing: %w", errs.ErrAlreadyClaimed)
	}

	return nil
}

func (r *QueueRepo) MarkCompleted(ctx context.Context, id uuid.UUID, response map[string]any) error {
	var respJSON []byte
	if response != nil {
		var err error
		respJSON, err = json.Marshal(response)
		if err != nil {
			return fmt.Errorf("QueueRepo - MarkCompleted - json.Marshal: %w", err)
		}
	}

	sql, args, err := r.Builder.
		Update(queueTable).
		Set(queueStatusColumn, entity.Completed).
		Set(queueProcessedAtColumn, time.Now()).
		Set(queueNextRetryAtColumn, nil).
		Set(queueExternalResponseColumn, respJSON).
		Where(squirrel.And{
			squirrel.Eq{queueIDColumn: id},
			squirrel.NotEq{queueStatusColumn: []entity.Status{entity.Completed, entity.Skipped}},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("QueueRepo - MarkCompleted - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("QueueRepo - MarkCompleted - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("QueueRepo - MarkCompleted: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *QueueRepo) MarkFailed(ctx context.Context, id uuid.UUID, mark repo.FailureMark) error {
	status := entity.Pending
	if mark.Terminal {
		status = entity.Failed
	}

	builder := r.Builder.
		Update(queueTable).
		Set(queueStatusColumn, status).
		Set(queueRetryCountColumn, mark.RetryCount).
		Set(queueErrorMessageColumn, mark.Message).
		Set(queueErrorDetailsColumn, mark.Details).
		Set(queueNextRetryAtColumn, mark.NextRetryAt)

	if mark.Terminal {
		builder = builder.Set(queueProcessedAtColumn, time.Now())
	}

	sql, args, err := builder.
		Where(squirrel.And{
			squirrel.Eq{queueIDColumn: id},
			squirrel.NotEq{queueStatusColumn: []entity.Status{entity.Completed, entity.Skipped}},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("QueueRepo - MarkFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("QueueRepo - MarkFailed - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("QueueRepo - MarkFailed: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *QueueRepo) MarkSkipped(ctx context.Context, id uuid.UUID, reason string) error {
	sql, args, err := r.Builder.
		Update(queueTable).
		Set(queueStatusColumn, entity.Skipped).
		Set(queueErrorMessageColumn, reason).
		Set(queueProcessedAtColumn, time.Now()).
		Set(queueNextRetryAtColumn, nil).
		Where(squirrel.And{
			squirrel.Eq{queueIDColumn: id},
			squirrel.NotEq{queueStatusColumn: []entity.Status{entity.Completed, entity.Skipped}},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("QueueRepo - MarkSkipped - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("QueueRepo - MarkSkipped - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("QueueRepo - MarkSkipped: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *QueueRepo) Counts(ctx context.Context, lastHourSince time.Time) (*repo.QueueCounts, map[entity.Status]int, error) {
	executor := r.GetExecutor(ctx)

	// counts by status
	sql, args, err := r.Builder.
		Select(queueStatusColumn, "COUNT(*)").
		From(queueTable).
		GroupBy(queueStatusColumn).
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("QueueRepo - Counts - r.Builder.ToSql: %w", err)
	}

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("QueueRepo - Counts - executor.Query: %w", err)
	}

	counts := &repo.QueueCounts{ByStatus: make(map[entity.Status]int)}
	for rows.Next() {
		var status entity.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("QueueRepo - Counts - rows.Scan: %w", err)
		}
		counts.ByStatus[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("QueueRepo - Counts - rows.Err: %w", err)
	}

	// terminal outcomes within the last hour
	sql, args, err = r.Builder.
		Select(queueStatusColumn, "COUNT(*)").
		From(queueTable).
		Where(squirrel.And{
			squirrel.Eq{queueStatusColumn: []entity.Status{entity.Completed, entity.Failed}},
			squirrel.GtOrEq{queueProcessedAtColumn: lastHourSince},
		}).
		GroupBy(queueStatusColumn).
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("QueueRepo - Counts - r.Builder.ToSql: %w", err)
	}

	rows, err = executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("QueueRepo - Counts - executor.Query: %w", err)
	}

	lastHour := make(map[entity.Status]int)
	for rows.Next() {
		var status entity.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("QueueRepo - Counts - rows.Scan: %w", err)
		}
		lastHour[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("QueueRepo - Counts - rows.Err: %w", err)
	}

	// oldest pending / last processed watermarks
	sql, args, err = r.Builder.
		Select(
			"MIN("+queueCreatedAtColumn+") FILTER (WHERE "+queueStatusColumn+" = 'pending')",
			"MAX("+queueProcessedAtColumn+")",
		).
		From(queueTable).
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("QueueRepo - Counts - r.Builder.ToSql: %w", err)
	}

	err = executor.QueryRow(ctx, sql, args...).Scan(&counts.OldestPendingAt, &counts.LastProcessedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("QueueRepo - Counts - executor.QueryRow: %w", err)
	}

	return counts, lastHour, nil
}

func (r *QueueRepo) CountsByTable(ctx context.Context) ([]dto.TableCounts, error) {
	sql, args, err := r.Builder.
		Select(
			queueTableNameColumn,
			"COUNT(*) FILTER (WHERE "+queueStatusColumn+" = 'pending')",
			"COUNT(*) FILTER (WHERE "+queueStatusColumn+" = 'failed')",
		).
		From(queueTable).
		GroupBy(queueTableNameColumn).
		OrderBy(queueTableNameColumn).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("QueueRepo - CountsByTable - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("QueueRepo - CountsByTable - executor.Query: %w", err)
	}
	defer rows.Close()

	var result []dto.TableCounts
	for rows.Next() {
		var tc dto.TableCounts
		if err := rows.Scan(&tc.TableName, &tc.Pending, &tc.Failed); err != nil {
			return nil, fmt.Errorf("QueueRepo - CountsByTable - rows.Scan: %w", err)
		}
		result = append(result, tc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("QueueRepo - CountsByTable - rows.Err: %w", err)
	}

	return result, nil
}

func (r *QueueRepo) RecentFailed(ctx context.Context, limit int) ([]dto.FailedItem, error) {
	sql, args, err := r.Builder.
		Select(
			queueIDColumn,
			queueTableNameColumn,
			queueRecordIDColumn,
			queueOperationColumn,
			queueRetryCountColumn,
			"COALESCE("+queueErrorMessageColumn+", '')",
			"COALESCE("+queueErrorDetailsColumn+", '')",
			queueProcessedAtColumn,
		).
		From(queueTable).
		Where(squirrel.Eq{queueStatusColumn: entity.Failed}).
		OrderBy(queueProcessedAtColumn + " DESC NULLS LAST").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("QueueRepo - RecentFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("QueueRepo - RecentFailed - executor.Query: %w", err)
	}
	defer rows.Close()

	items := make([]dto.FailedItem, 0, limit)
	for rows.Next() {
		var item dto.FailedItem
		var id uuid.UUID
		err := rows.Scan(
			&id,
			&item.TableName,
			&item.RecordID,
			&item.Operation,
			&item.RetryCount,
			&item.ErrorMessage,
			&item.ErrorDetails,
			&item.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("QueueRepo - RecentFailed - rows.Scan: %w", err)
		}
		item.ID = id.String()
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("QueueRepo - RecentFailed - rows.Err: %w", err)
	}

	return items, nil
}

func (r *QueueRepo) Purge(ctx context.Context, status entity.Status, cutoff time.Time) ([]*entity.QueueItem, error) {
	if status != entity.Completed && status != entity.Failed && status != entity.Skipped {
		return nil, fmt.Errorf("QueueRepo - Purge: status %q is not purgeable", status)
	}

	// failed items may carry no processed_at, their age is judged by creation
	ageColumn := queueProcessedAtColumn
	if status == entity.Failed {
		ageColumn = queueCreatedAtColumn
	}

	sql, args, err := r.Builder.
		Delete(queueTable).
		Where(squirrel.And{
			squirrel.Eq{queueStatusColumn: status},
			squirrel.Lt{ageColumn: cutoff},
		}).
		Suffix("RETURNING " + joinColumns(queueColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("QueueRepo - Purge - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("QueueRepo - Purge - executor.Query: %w", err)
	}
	defer rows.Close()

	var items []*entity.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("QueueRepo - Purge - scanQueueItem: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("QueueRepo - Purge - rows.Err: %w", err)
	}

	return items, nil
}

func joinColumns(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}
	return out
}

func scanQueueItem(row pgx.Rows) (*entity.QueueItem, error) {
	var item entity.QueueItem
	var payload, response []byte

	err := row.Scan(
		&item.ID,
		&item.TableName,
		&item.RecordID,
		&item.Operation,
		&payload,
		&item.Status,
		&item.RetryCount,
		&item.MaxRetries,
		&item.ErrorMessage,
		&item.ErrorDetails,
		&item.CreatedAt,
		&item.ProcessedAt,
		&item.NextRetryAt,
		&response,
		&item.IdempotencyKey,
	)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &item.Payload); err != nil {
			return nil, fmt.Errorf("payload json.Unmarshal: %w", err)
		}
	}
	if len(response) > 0 {
		if err := json.Unmarshal(response, &item.ExternalResponse); err != nil {
			return nil, fmt.Errorf("external_response json.Unmarshal: %w", err)
		}
	}

	return &item, nil
}

func scanPendingItem(rows pgx.Rows) (*entity.PendingItem, error) {
	var item entity.QueueItem
	var payload, response []byte

	var cfgTable, cfgWorkflow, cfgObjectType *string
	var cfgEnabled, cfgOnInsert, cfgOnUpdate, cfgOnDelete *bool
	var cfgMapping []byte
	var cfgExcluded []string

	err := rows.Scan(
		&item.ID,
		&item.TableName,
		&item.RecordID,
		&item.Operation,
		&payload,
		&item.Status,
		&item.RetryCount,
		&item.MaxRetries,
		&item.ErrorMessage,
		&item.ErrorDetails,
		&item.CreatedAt,
		&item.ProcessedAt,
		&item.NextRetryAt,
		&response,
		&item.IdempotencyKey,
		&cfgTable,
		&cfgWorkflow,
		&cfgObjectType,
		&cfgEnabled,
		&cfgOnInsert,
		&cfgOnUpdate,
		&cfgOnDelete,
		&cfgMapping,
		&cfgExcluded,
	)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &item.Payload); err != nil {
			return nil, fmt.Errorf("payload json.Unmarshal: %w", err)
		}
	}
	if len(response) > 0 {
		if err := json.Unmarshal(response, &item.ExternalResponse); err != nil {
			return nil, fmt.Errorf("external_response json.Unmarshal: %w", err)
		}
	}

	pending := &entity.PendingItem{Item: &item}

	if cfgTable != nil {
		cfg := &entity.SyncConfig{
			SupabaseTable:  *cfgTable,
			ExcludedFields: cfgExcluded,
		}
		if cfgWorkflow != nil {
			cfg.TargetWorkflow = *cfgWorkflow
		}
		if cfgObjectType != nil {
			cfg.TargetObjectType = *cfgObjectType
		}
		if cfgEnabled != nil {
			cfg.Enabled = *cfgEnabled
		}
		if cfgOnInsert != nil {
			cfg.SyncOnInsert = *cfgOnInsert
		}
		if cfgOnUpdate != nil {
			cfg.SyncOnUpdate = *cfgOnUpdate
		}
		if cfgOnDelete != nil {
			cfg.SyncOnDelete = *cfgOnDelete
		}
		if len(cfgMapping) > 0 {
			if err := json.Unmarshal(cfgMapping, &cfg.FieldMapping); err != nil {
				return nil, fmt.Errorf("field_mapping json.Unmarshal: %w", err)
			}
		}
		pending.Config = cfg
	}

	return pending, nil
}
