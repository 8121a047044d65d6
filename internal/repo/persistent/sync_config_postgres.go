package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	"github.com/splitleasesharath/splitlease-sub017/pkg/postgres"
	"github.com/splitleasesharath/splitlease-sub017/pkg/types/errs"
)

const (
	// Table
	configTable = "sync_config"

	// Columns
	configSupabaseTableColumn    = "supabase_table"
	configTargetWorkflowColumn   = "target_workflow"
	configTargetObjectTypeColumn = "target_object_type"
	configEnabledColumn          = "enabled"
	configSyncOnInsertColumn     = "sync_on_insert"
	configSyncOnUpdateColumn     = "sync_on_update"
	configSyncOnDeleteColumn     = "sync_on_delete"
	configFieldMappingColumn     = "field_mapping"
	configExcludedFieldsColumn   = "excluded_fields"
)

var configColumns = []string{
	configSupabaseTableColumn,
	configTargetWorkflowColumn,
	configTargetObjectTypeColumn,
	configEnabledColumn,
	configSyncOnInsertColumn,
	configSyncOnUpdateColumn,
	configSyncOnDeleteColumn,
	configFieldMappingColumn,
	configExcludedFieldsColumn,
}

// SyncConfigRepo reads the sync policy table. The table is owned by an
// external administrative process, this repo never writes it.
type SyncConfigRepo struct {
	*postgres.Postgres
}

func NewSyncConfigRepo(pg *postgres.Postgres) *SyncConfigRepo {
	return &SyncConfigRepo{pg}
}

func (r *SyncConfigRepo) GetByTable(ctx context.Context, table string) (*entity.SyncConfig, error) {
	sql, args, err := r.Builder.
		Select(configColumns...).
		From(configTable).
		Where(squirrel.Eq{configSupabaseTableColumn: table}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SyncConfigRepo - GetByTable - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	cfg, err := scanSyncConfig(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("SyncConfigRepo - GetByTable: %w", errs.ErrNoSyncConfig)
		}
		return nil, fmt.Errorf("SyncConfigRepo - GetByTable - executor.QueryRow: %w", err)
	}

	return cfg, nil
}

func (r *SyncConfigRepo) ListEnabled(ctx context.Context) ([]*entity.SyncConfig, error) {
	sql, args, err := r.Builder.
		Select(configColumns...).
		From(configTable).
		Where(squirrel.Eq{configEnabledColumn: true}).
		OrderBy(configSupabaseTableColumn).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SyncConfigRepo - ListEnabled - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("SyncConfigRepo - ListEnabled - executor.Query: %w", err)
	}
	defer rows.Close()

	var configs []*entity.SyncConfig
	for rows.Next() {
		cfg, err := scanSyncConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("SyncConfigRepo - ListEnabled - scanSyncConfig: %w", err)
		}
		configs = append(configs, cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SyncConfigRepo - ListEnabled - rows.Err: %w", err)
	}

	return configs, nil
}

func scanSyncConfig(row pgx.Row) (*entity.SyncConfig, error) {
	var cfg entity.SyncConfig
	var workflow, objectType *string
	var mapping []byte

	err := row.Scan(
		&cfg.SupabaseTable,
		&workflow,
		&objectType,
		&cfg.Enabled,
		&cfg.SyncOnInsert,
		&cfg.SyncOnUpdate,
		&cfg.SyncOnDelete,
		&mapping,
		&cfg.ExcludedFields,
	)
	if err != nil {
		return nil, err
	}

	if workflow != nil {
		cfg.TargetWorkflow = *workflow
	}
	if objectType != nil {
		cfg.TargetObjectType = *objectType
	}
	if len(mapping) > 0 {
		if err := json.Unmarshal(mapping, &cfg.FieldMapping); err != nil {
			return nil, fmt.Errorf("field_mapping json.Unmarshal: %w", err)
		}
	}

	return &cfg, nil
}
