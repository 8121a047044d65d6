package persistent

import (
	"context"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	"github.com/splitleasesharath/splitlease-sub017/internal/repo"
	"github.com/splitleasesharath/splitlease-sub017/pkg/postgres"
	"github.com/splitleasesharath/splitlease-sub017/pkg/types/errs"
)

// captureExecutor records the SQL the repo generates instead of running it.
type captureExecutor struct {
	sql  []string
	args [][]any
	tag  pgconn.CommandTag
}

func (e *captureExecutor) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql = append(e.sql, sql)
	e.args = append(e.args, args)
	return e.tag, nil
}

func (e *captureExecutor) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	e.sql = append(e.sql, sql)
	e.args = append(e.args, args)
	return emptyRows{}, nil
}

func (e *captureExecutor) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	e.sql = append(e.sql, sql)
	e.args = append(e.args, args)
	return emptyRows{}
}

type emptyRows struct{}

func (emptyRows) Close()                        {}
func (emptyRows) Err() error                    { return nil }
func (emptyRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (emptyRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}
func (emptyRows) Next() bool             { return false }
func (emptyRows) Scan(_ ...any) error    { return pgx.ErrNoRows }
func (emptyRows) Values() ([]any, error) { return nil, nil }
func (emptyRows) RawValues() [][]byte    { return nil }
func (emptyRows) Conn() *pgx.Conn        { return nil }

func newCaptureRepo(t *testing.T, tag string) (*QueueRepo, *captureExecutor, context.Context) {
	t.Helper()

	exec := &captureExecutor{tag: pgconn.NewCommandTag(tag)}
	r := NewQueueRepo(&postgres.Postgres{
		Builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	})

	return r, exec, postgres.WithExecutor(context.Background(), exec)
}

func TestMarkProcessingClaimsPendingOnly(t *testing.T) {
	r, exec, ctx := newCaptureRepo(t, "UPDATE 1")

	require.NoError(t, r.MarkProcessing(ctx, uuid.New()))

	require.Len(t, exec.sql, 1)
	require.Contains(t, exec.sql[0], "status = $")
	require.Contains(t, exec.args[0], entity.Pending)
}

func TestMarkProcessingLostClaim(t *testing.T) {
	r, _, ctx := newCaptureRepo(t, "UPDATE 0")

	err := r.MarkProcessing(ctx, uuid.New())
	require.ErrorIs(t, err, errs.ErrAlreadyClaimed)
}

func TestMarksGuardTerminalStatuses(t *testing.T) {
	retryAt := time.Now().Add(time.Minute)

	tests := []struct {
		name string
		call func(r *QueueRepo, ctx context.Context, id uuid.UUID) error
	}{
		{
			name: "completed",
			call: func(r *QueueRepo, ctx context.Context, id uuid.UUID) error {
				return r.MarkCompleted(ctx, id, map[string]any{"status": "success"})
			},
		},
		{
			name: "failed",
			call: func(r *QueueRepo, ctx context.Context, id uuid.UUID) error {
				return r.MarkFailed(ctx, id, repo.FailureMark{
					Message:     "boom",
					RetryCount:  1,
					NextRetryAt: &retryAt,
				})
			},
		},
		{
			name: "skipped",
			call: func(r *QueueRepo, ctx context.Context, id uuid.UUID) error {
				return r.MarkSkipped(ctx, id, "no sync config")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, exec, ctx := newCaptureRepo(t, "UPDATE 1")

			require.NoError(t, tt.call(r, ctx, uuid.New()))

			require.Len(t, exec.sql, 1)
			require.Contains(t, exec.sql[0], "status NOT IN")
			require.Contains(t, exec.args[0], entity.Completed)
			require.Contains(t, exec.args[0], entity.Skipped)
		})
	}

	for _, tt := range tests {
		t.Run(tt.name+" already terminal", func(t *testing.T) {
			r, _, ctx := newCaptureRepo(t, "UPDATE 0")

			err := tt.call(r, ctx, uuid.New())
			require.ErrorIs(t, err, errs.ErrRecordNotFound)
		})
	}
}

func TestMarkFailedTerminalClearsRetryAndStamps(t *testing.T) {
	r, exec, ctx := newCaptureRepo(t, "UPDATE 1")

	err := r.MarkFailed(ctx, uuid.New(), repo.FailureMark{
		Message:    "gave up",
		RetryCount: 3,
		Terminal:   true,
	})
	require.NoError(t, err)

	require.Contains(t, exec.sql[0], "processed_at = $")
	require.Contains(t, exec.args[0], entity.Failed)
	// next_retry_at carries the nil pointer straight through
	require.Contains(t, exec.args[0], (*time.Time)(nil))
}

func TestMarkFailedRetryableStaysPending(t *testing.T) {
	r, exec, ctx := newCaptureRepo(t, "UPDATE 1")
	retryAt := time.Now().Add(time.Minute)

	err := r.MarkFailed(ctx, uuid.New(), repo.FailureMark{
		Message:     "delivery failed",
		RetryCount:  1,
		NextRetryAt: &retryAt,
	})
	require.NoError(t, err)

	require.Contains(t, exec.args[0], entity.Pending)
	require.Contains(t, exec.args[0], &retryAt)
	require.NotContains(t, exec.sql[0], "processed_at")
}

func TestPurgeCutoffColumnPerStatus(t *testing.T) {
	cutoff := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		status    entity.Status
		ageColumn string
	}{
		{entity.Completed, "processed_at"},
		{entity.Skipped, "processed_at"},
		{entity.Failed, "created_at"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			r, exec, ctx := newCaptureRepo(t, "")

			_, err := r.Purge(ctx, tt.status, cutoff)
			require.NoError(t, err)

			require.Len(t, exec.sql, 1)
			// strict comparison: a row aged exactly at the cutoff survives
			require.Contains(t, exec.sql[0], tt.ageColumn+" < $")
			require.NotContains(t, exec.sql[0], "<=")
			require.Contains(t, exec.args[0], tt.status)
			require.Contains(t, exec.args[0], cutoff)
		})
	}
}

func TestPurgeRejectsLiveStatuses(t *testing.T) {
	r, exec, ctx := newCaptureRepo(t, "")

	for _, status := range []entity.Status{entity.Pending, entity.Processing} {
		_, err := r.Purge(ctx, status, time.Now())
		require.Error(t, err)
	}

	require.Empty(t, exec.sql)
}
