package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/splitleasesharath/splitlease-sub017/pkg/postgres"
	"github.com/splitleasesharath/splitlease-sub017/pkg/types/errs"
)

const (
	recordIDColumn = "id"

	// destinationIDColumn holds the id assigned by the destination platform
	// once a record has been mirrored.
	destinationIDColumn = "bubble_id"
)

// identifierPattern restricts table and column names supplied by callers;
// they are interpolated into SQL because the target table is dynamic.
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// RecordRepo reads and updates business records in the primary store on
// behalf of the sync engine: payload fetches for immediate syncs and
// destination-id / reference-list writebacks after successful deliveries.
type RecordRepo struct {
	*postgres.Postgres
}

func NewRecordRepo(pg *postgres.Postgres) *RecordRepo {
	return &RecordRepo{pg}
}

func (r *RecordRepo) GetRecord(ctx context.Context, table, recordID string) (map[string]any, error) {
	if err := validIdentifier(table); err != nil {
		return nil, fmt.Errorf("RecordRepo - GetRecord: %w", err)
	}

	sql, args, err := r.Builder.
		Select("row_to_json(t)").
		From(table + " t").
		Where(squirrel.Eq{recordIDColumn: recordID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("RecordRepo - GetRecord - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var raw []byte
	err = executor.QueryRow(ctx, sql, args...).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("RecordRepo - GetRecord: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("RecordRepo - GetRecord - executor.QueryRow: %w", err)
	}

	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("RecordRepo - GetRecord - json.Unmarshal: %w", err)
	}

	return record, nil
}

func (r *RecordRepo) SetDestinationID(ctx context.Context, table, recordID, destinationID string) error {
	if err := validIdentifier(table); err != nil {
		return fmt.Errorf("RecordRepo - SetDestinationID: %w", err)
	}

	sql, args, err := r.Builder.
		Update(table).
		Set(destinationIDColumn, destinationID).
		Where(squirrel.Eq{recordIDColumn: recordID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("RecordRepo - SetDestinationID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("RecordRepo - SetDestinationID - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("RecordRepo - SetDestinationID: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *RecordRepo) GetReferenceList(ctx context.Context, table, recordID, column string) ([]string, error) {
	if err := validIdentifier(table); err != nil {
		return nil, fmt.Errorf("RecordRepo - GetReferenceList: %w", err)
	}
	if err := validIdentifier(column); err != nil {
		return nil, fmt.Errorf("RecordRepo - GetReferenceList: %w", err)
	}

	sql, args, err := r.Builder.
		Select(column).
		From(table).
		Where(squirrel.Eq{recordIDColumn: recordID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("RecordRepo - GetReferenceList - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var raw []byte
	err = executor.QueryRow(ctx, sql, args...).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("RecordRepo - GetReferenceList: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("RecordRepo - GetReferenceList - executor.QueryRow: %w", err)
	}

	if len(raw) == 0 {
		return nil, nil
	}

	var refs []string
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, fmt.Errorf("RecordRepo - GetReferenceList - json.Unmarshal: %w", err)
	}

	return refs, nil
}

func (r *RecordRepo) SetReferenceList(ctx context.Context, table, recordID, column string, refs []string) error {
	if err := validIdentifier(table); err != nil {
		return fmt.Errorf("RecordRepo - SetReferenceList: %w", err)
	}
	if err := validIdentifier(column); err != nil {
		return fmt.Errorf("RecordRepo - SetReferenceList: %w", err)
	}

	raw, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("RecordRepo - SetReferenceList - json.Marshal: %w", err)
	}

	sql, args, err := r.Builder.
		Update(table).
		Set(column, raw).
		Where(squirrel.Eq{recordIDColumn: recordID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("RecordRepo - SetReferenceList - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("RecordRepo - SetReferenceList - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("RecordRepo - SetReferenceList: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func validIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}

	return nil
}
