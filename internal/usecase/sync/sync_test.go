package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	"github.com/splitleasesharath/splitlease-sub017/internal/infrastructure"
	"github.com/splitleasesharath/splitlease-sub017/internal/infrastructure/bubble"
	"github.com/splitleasesharath/splitlease-sub017/internal/mapping"
	"github.com/splitleasesharath/splitlease-sub017/internal/repo"
	"github.com/splitleasesharath/splitlease-sub017/internal/transform"
	"github.com/splitleasesharath/splitlease-sub017/pkg/logger"
	"github.com/splitleasesharath/splitlease-sub017/pkg/types/errs"
)

type fakeQueueRepo struct {
	pending    []*entity.PendingItem
	retryable  []*entity.PendingItem
	preClaimed map[uuid.UUID]struct{}

	enqueued  []*entity.QueueItem
	completed map[uuid.UUID]map[string]any
	failed    map[uuid.UUID]repo.FailureMark
	skipped   map[uuid.UUID]string
	purgeable map[entity.Status][]*entity.QueueItem
	purged    []entity.Status
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{
		preClaimed: map[uuid.UUID]struct{}{},
		completed:  map[uuid.UUID]map[string]any{},
		failed:     map[uuid.UUID]repo.FailureMark{},
		skipped:    map[uuid.UUID]string{},
		purgeable:  map[entity.Status][]*entity.QueueItem{},
	}
}

func (f *fakeQueueRepo) Enqueue(_ context.Context, item *entity.QueueItem) (uuid.UUID, error) {
	f.enqueued = append(f.enqueued, item)
	return item.ID, nil
}

func (f *fakeQueueRepo) FetchPending(_ context.Context, _ int, _ string) ([]*entity.PendingItem, error) {
	return f.pending, nil
}

func (f *fakeQueueRepo) FetchRetryable(_ context.Context, _ int, _ bool) ([]*entity.PendingItem, error) {
	return f.retryable, nil
}

func (f *fakeQueueRepo) MarkProcessing(_ context.Context, id uuid.UUID) error {
	if _, taken := f.preClaimed[id]; taken {
		return errs.ErrAlreadyClaimed
	}
	return nil
}

func (f *fakeQueueRepo) MarkCompleted(_ context.Context, id uuid.UUID, response map[string]any) error {
	f.completed[id] = response
	return nil
}

func (f *fakeQueueRepo) MarkFailed(_ context.Context, id uuid.UUID, mark repo.FailureMark) error {
	f.failed[id] = mark
	return nil
}

func (f *fakeQueueRepo) MarkSkipped(_ context.Context, id uuid.UUID, reason string) error {
	f.skipped[id] = reason
	return nil
}

func (f *fakeQueueRepo) Counts(_ context.Context, _ time.Time) (*repo.QueueCounts, map[entity.Status]int, error) {
	return &repo.QueueCounts{
		ByStatus: map[entity.Status]int{entity.Pending: 4, entity.Processing: 1},
	}, map[entity.Status]int{entity.Completed: 12, entity.Failed: 2}, nil
}

func (f *fakeQueueRepo) CountsByTable(_ context.Context) ([]dto.TableCounts, error) {
	return []dto.TableCounts{{TableName: "listing", Pending: 3, Failed: 1}}, nil
}

func (f *fakeQueueRepo) RecentFailed(_ context.Context, limit int) ([]dto.FailedItem, error) {
	items := []dto.FailedItem{{ID: "a", TableName: "listing"}, {ID: "b", TableName: "user"}}
	if limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeQueueRepo) Purge(_ context.Context, status entity.Status, _ time.Time) ([]*entity.QueueItem, error) {
	f.purged = append(f.purged, status)
	return f.purgeable[status], nil
}

type fakeConfigRepo struct {
	configs map[string]*entity.SyncConfig
}

func (f *fakeConfigRepo) GetByTable(_ context.Context, table string) (*entity.SyncConfig, error) {
	cfg, ok := f.configs[table]
	if !ok {
		return nil, errs.ErrNoSyncConfig
	}
	return cfg, nil
}

func (f *fakeConfigRepo) ListEnabled(_ context.Context) ([]*entity.SyncConfig, error) {
	out := make([]*entity.SyncConfig, 0, len(f.configs))
	for _, cfg := range f.configs {
		if cfg.Enabled {
			out = append(out, cfg)
		}
	}
	return out, nil
}

type fakeRecordRepo struct {
	records map[string]map[string]any

	destinationIDs map[string]string
	referenceLists map[string][]string
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{
		records:        map[string]map[string]any{},
		destinationIDs: map[string]string{},
		referenceLists: map[string][]string{},
	}
}

func (f *fakeRecordRepo) GetRecord(_ context.Context, table, recordID string) (map[string]any, error) {
	record, ok := f.records[table+"/"+recordID]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeRecordRepo) SetDestinationID(_ context.Context, table, recordID, destinationID string) error {
	f.destinationIDs[table+"/"+recordID] = destinationID
	return nil
}

func (f *fakeRecordRepo) GetReferenceList(_ context.Context, table, recordID, column string) ([]string, error) {
	return f.referenceLists[table+"/"+recordID+"/"+column], nil
}

func (f *fakeRecordRepo) SetReferenceList(_ context.Context, table, recordID, column string, refs []string) error {
	f.referenceLists[table+"/"+recordID+"/"+column] = refs
	return nil
}

type fakeArchive struct {
	key   string
	items []*entity.QueueItem
	err   error
}

func (f *fakeArchive) ArchiveItems(_ context.Context, key string, items []*entity.QueueItem) error {
	if f.err != nil {
		return f.err
	}
	f.key = key
	f.items = items
	return nil
}

type passthroughTransactor struct{}

func (passthroughTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}

type patchCall struct {
	objectType    string
	destinationID string
	data          map[string]any
}

type fakeClient struct {
	deliveries []infrastructure.Delivery
	gets       []string
	patches    []patchCall
	result     *infrastructure.DeliveryResult
	err        error
	getErr     error
}

func (f *fakeClient) Deliver(_ context.Context, d infrastructure.Delivery) (*infrastructure.DeliveryResult, error) {
	f.deliveries = append(f.deliveries, d)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &infrastructure.DeliveryResult{Response: map[string]any{"status": "success"}}, nil
}

func (f *fakeClient) Get(_ context.Context, objectType, destinationID string) (*infrastructure.DeliveryResult, error) {
	f.gets = append(f.gets, objectType+"/"+destinationID)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &infrastructure.DeliveryResult{DestinationID: destinationID}, nil
}

func (f *fakeClient) Patch(_ context.Context, objectType, destinationID string, data map[string]any) (*infrastructure.DeliveryResult, error) {
	f.patches = append(f.patches, patchCall{objectType, destinationID, data})
	if f.err != nil {
		return nil, f.err
	}
	return &infrastructure.DeliveryResult{Response: map[string]any{"status": "success"}}, nil
}

type fakeTrigger struct {
	published []string
}

func (f *fakeTrigger) PublishTrigger(_ context.Context, tableFilter string) error {
	f.published = append(f.published, tableFilter)
	return nil
}

func (f *fakeTrigger) Close() error { return nil }

type fixture struct {
	uc       *SyncUseCase
	queue    *fakeQueueRepo
	configs  *fakeConfigRepo
	records  *fakeRecordRepo
	archive  *fakeArchive
	workflow *fakeClient
	data     *fakeClient
	trigger  *fakeTrigger
}

func newFixture() *fixture {
	f := &fixture{
		queue:    newFakeQueueRepo(),
		configs:  &fakeConfigRepo{configs: map[string]*entity.SyncConfig{}},
		records:  newFakeRecordRepo(),
		archive:  &fakeArchive{},
		workflow: &fakeClient{},
		data:     &fakeClient{},
		trigger:  &fakeTrigger{},
	}

	mapper := mapping.New()
	l := logger.New("error")

	f.uc = New(
		f.queue,
		f.configs,
		f.records,
		f.archive,
		passthroughTransactor{},
		f.workflow,
		f.data,
		f.trigger,
		transform.New(mapper, l),
		mapper,
		3,
		0,
		"https://app.example.com",
		"key",
		l,
	)

	return f
}

func listingConfig() *entity.SyncConfig {
	return &entity.SyncConfig{
		SupabaseTable:    "listing",
		TargetWorkflow:   "sync_listing",
		TargetObjectType: "listing",
		Enabled:          true,
		SyncOnInsert:     true,
		SyncOnUpdate:     true,
		SyncOnDelete:     true,
	}
}

func pendingItem(table string, op entity.Operation, payload map[string]any, cfg *entity.SyncConfig) *entity.PendingItem {
	return &entity.PendingItem{
		Item: &entity.QueueItem{
			ID:         uuid.New(),
			TableName:  table,
			RecordID:   "rec-1",
			Operation:  op,
			Payload:    payload,
			Status:     entity.Pending,
			MaxRetries: 3,
		},
		Config: cfg,
	}
}

func TestProcessQueueSkipsWithoutConfig(t *testing.T) {
	f := newFixture()
	p := pendingItem("listing", entity.OpUpdate, map[string]any{"title": "loft"}, nil)
	f.queue.pending = []*entity.PendingItem{p}

	result, err := f.uc.ProcessQueue(context.Background(), 10, "")
	require.NoError(t, err)
	require.Equal(t, &dto.ProcessResult{Processed: 1, Skipped: 1}, result)
	require.Equal(t, errs.ErrNoSyncConfig.Error(), f.queue.skipped[p.Item.ID])
	require.Empty(t, f.workflow.deliveries)
}

func TestProcessQueueSkipsDisabledOperation(t *testing.T) {
	f := newFixture()
	cfg := listingConfig()
	cfg.SyncOnDelete = false
	p := pendingItem("listing", entity.OpDelete, nil, cfg)
	f.queue.pending = []*entity.PendingItem{p}

	result, err := f.uc.ProcessQueue(context.Background(), 10, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, errs.ErrOperationDisabled.Error(), f.queue.skipped[p.Item.ID])
}

func TestProcessQueueWorkflowSuccess(t *testing.T) {
	f := newFixture()
	p := pendingItem("listing", entity.OpUpdate, map[string]any{
		"active":        "true",
		"password_hash": "x",
	}, listingConfig())
	f.queue.pending = []*entity.PendingItem{p}

	result, err := f.uc.ProcessQueue(context.Background(), 10, "")
	require.NoError(t, err)
	require.Equal(t, &dto.ProcessResult{Processed: 1, Success: 1}, result)

	require.Len(t, f.workflow.deliveries, 1)
	d := f.workflow.deliveries[0]
	require.Equal(t, "sync_listing", d.Target)
	require.Equal(t, map[string]any{"active": true}, d.Data, "credential fields never leave the system")

	require.Contains(t, f.queue.completed, p.Item.ID)
	require.Empty(t, f.data.deliveries)
}

func TestProcessQueueDataAPIInsertWritesBackDestinationID(t *testing.T) {
	f := newFixture()
	f.data.result = &infrastructure.DeliveryResult{
		DestinationID: "dest-42",
		Response:      map[string]any{"id": "dest-42"},
	}
	p := pendingItem("listing", entity.OpInsert, map[string]any{"title": "loft"}, listingConfig())
	f.queue.pending = []*entity.PendingItem{p}

	result, err := f.uc.ProcessQueueDataAPI(context.Background(), 10, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.Success)

	require.Len(t, f.data.deliveries, 1)
	require.Equal(t, "listing", f.data.deliveries[0].Target)
	require.Equal(t, "dest-42", f.records.destinationIDs["listing/rec-1"])
}

func TestProcessQueueDeleteCarriesNoData(t *testing.T) {
	f := newFixture()
	p := pendingItem("listing", entity.OpDelete, map[string]any{"bubble_id": "dest-1"}, listingConfig())
	f.queue.pending = []*entity.PendingItem{p}

	_, err := f.uc.ProcessQueueDataAPI(context.Background(), 10, "")
	require.NoError(t, err)

	require.Len(t, f.data.deliveries, 1)
	require.Nil(t, f.data.deliveries[0].Data)
	require.Equal(t, "dest-1", f.data.deliveries[0].DestinationID)
}

func TestProcessQueueDeliveryFailureSchedulesRetry(t *testing.T) {
	f := newFixture()
	f.workflow.err = &bubble.DeliveryError{StatusCode: 502, Body: "bad gateway"}
	p := pendingItem("listing", entity.OpUpdate, map[string]any{"title": "loft"}, listingConfig())
	f.queue.pending = []*entity.PendingItem{p}

	result, err := f.uc.ProcessQueue(context.Background(), 10, "")
	require.NoError(t, err)
	require.Equal(t, &dto.ProcessResult{Processed: 1, Failed: 1}, result)

	mark := f.queue.failed[p.Item.ID]
	require.Equal(t, 1, mark.RetryCount)
	require.False(t, mark.Terminal)
	require.NotNil(t, mark.NextRetryAt)
	require.Contains(t, mark.Details, `"status_code":502`)
}

func TestProcessQueueExhaustedBudgetIsTerminal(t *testing.T) {
	f := newFixture()
	f.workflow.err = errors.New("still down")
	p := pendingItem("listing", entity.OpUpdate, map[string]any{"title": "loft"}, listingConfig())
	p.Item.RetryCount = 2
	f.queue.pending = []*entity.PendingItem{p}

	_, err := f.uc.ProcessQueue(context.Background(), 10, "")
	require.NoError(t, err)

	mark := f.queue.failed[p.Item.ID]
	require.Equal(t, 3, mark.RetryCount)
	require.True(t, mark.Terminal)
	require.Nil(t, mark.NextRetryAt)
}

func TestProcessQueueLostClaimIsNotCounted(t *testing.T) {
	f := newFixture()
	p := pendingItem("listing", entity.OpUpdate, map[string]any{"title": "loft"}, listingConfig())
	f.queue.pending = []*entity.PendingItem{p}
	f.queue.preClaimed[p.Item.ID] = struct{}{}

	result, err := f.uc.ProcessQueue(context.Background(), 10, "")
	require.NoError(t, err)
	require.Equal(t, &dto.ProcessResult{}, result)
	require.Empty(t, f.workflow.deliveries)
}

func TestRetryFailedFlowsThroughProcessing(t *testing.T) {
	f := newFixture()
	p := pendingItem("listing", entity.OpUpdate, map[string]any{"bubble_id": "dest-1"}, listingConfig())
	p.Item.RetryCount = 1
	f.queue.retryable = []*entity.PendingItem{p}

	result, err := f.uc.RetryFailed(context.Background(), 10, false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Success)
	require.Len(t, f.data.deliveries, 1, "retry pass delivers via the object API")
}

func TestEnqueueOrdersBySequence(t *testing.T) {
	f := newFixture()

	ids, err := f.uc.Enqueue(context.Background(), "corr-1", []dto.EnqueueItem{
		{Sequence: 2, Table: "user", RecordID: "u1", Operation: entity.OpUpdate},
		{Sequence: 1, Table: "listing", RecordID: "l1", Operation: entity.OpInsert},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	require.Equal(t, "listing", f.queue.enqueued[0].TableName)
	require.Equal(t, "user", f.queue.enqueued[1].TableName)
	require.NotEmpty(t, f.queue.enqueued[0].IdempotencyKey)
}

func TestEnqueueRejectsUnknownOperation(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Enqueue(context.Background(), "corr-1", []dto.EnqueueItem{
		{Table: "listing", RecordID: "l1", Operation: entity.Operation("MERGE")},
	})
	require.ErrorIs(t, err, errs.ErrUnknownOperation)
}

func TestSyncSingleQueued(t *testing.T) {
	f := newFixture()
	f.records.records["listing/rec-1"] = map[string]any{"title": "loft"}

	result, err := f.uc.SyncSingle(context.Background(), dto.SyncSingle{
		TableName: "listing",
		RecordID:  "rec-1",
		UseQueue:  true,
	})
	require.NoError(t, err)
	require.Equal(t, &dto.ProcessResult{}, result)
	require.Len(t, f.queue.enqueued, 1)
	require.Equal(t, entity.OpUpdate, f.queue.enqueued[0].Operation, "operation defaults to update")
}

func TestSyncSingleImmediate(t *testing.T) {
	f := newFixture()
	f.records.records["listing/rec-1"] = map[string]any{"title": "loft"}
	f.configs.configs["listing"] = listingConfig()

	result, err := f.uc.SyncSingle(context.Background(), dto.SyncSingle{
		TableName: "listing",
		RecordID:  "rec-1",
		Operation: entity.OpUpdate,
	})
	require.NoError(t, err)
	require.Equal(t, &dto.ProcessResult{Processed: 1, Success: 1}, result)
	require.Len(t, f.workflow.deliveries, 1)
	require.Empty(t, f.queue.enqueued)
}

func TestSyncSingleUnknownRecord(t *testing.T) {
	f := newFixture()

	_, err := f.uc.SyncSingle(context.Background(), dto.SyncSingle{
		TableName: "listing",
		RecordID:  "missing",
	})
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestSyncSingleNoConfigSkips(t *testing.T) {
	f := newFixture()
	f.records.records["listing/rec-1"] = map[string]any{"title": "loft"}

	result, err := f.uc.SyncSingle(context.Background(), dto.SyncSingle{
		TableName: "listing",
		RecordID:  "rec-1",
	})
	require.NoError(t, err)
	require.Equal(t, &dto.ProcessResult{Processed: 1, Skipped: 1}, result)
}

func TestStatusReport(t *testing.T) {
	f := newFixture()
	f.configs.configs["listing"] = listingConfig()

	report, err := f.uc.Status(context.Background(), dto.StatusRequest{
		IncludeByTable:      true,
		IncludeRecentErrors: true,
		ErrorLimit:          1,
	})
	require.NoError(t, err)
	require.Equal(t, 4, report.Pending)
	require.Equal(t, 1, report.Processing)
	require.Equal(t, 12, report.CompletedLastHour)
	require.Equal(t, 2, report.FailedLastHour)
	require.Len(t, report.ByTable, 1)
	require.Len(t, report.RecentErrors, 1)
	require.Len(t, report.Configs, 1)
}

func TestCleanupPurgesAndArchives(t *testing.T) {
	f := newFixture()
	f.queue.purgeable[entity.Completed] = []*entity.QueueItem{
		{ID: uuid.New(), Status: entity.Completed},
		{ID: uuid.New(), Status: entity.Completed},
	}
	f.queue.purgeable[entity.Failed] = []*entity.QueueItem{
		{ID: uuid.New(), Status: entity.Failed},
	}

	result, err := f.uc.Cleanup(context.Background(), dto.CleanupRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(2), result.Completed)
	require.Equal(t, int64(1), result.Failed)
	require.Equal(t, int64(0), result.Skipped)
	require.Equal(t, 3, result.Archived)

	require.ElementsMatch(t, []entity.Status{entity.Completed, entity.Failed, entity.Skipped}, f.queue.purged)
	require.Len(t, f.archive.items, 3)
	require.Contains(t, f.archive.key, "archive/sync-queue/")
}

func TestCleanupArchiveFailureAborts(t *testing.T) {
	f := newFixture()
	f.archive.err = errors.New("bucket gone")
	f.queue.purgeable[entity.Completed] = []*entity.QueueItem{{ID: uuid.New()}}

	_, err := f.uc.Cleanup(context.Background(), dto.CleanupRequest{})
	require.Error(t, err)
}

func TestSyncSignup(t *testing.T) {
	f := newFixture()
	f.records.records["user/u1"] = map[string]any{"email": "ann@example.com", "password_hash": "x"}
	f.configs.configs["user"] = &entity.SyncConfig{
		SupabaseTable:    "user",
		TargetObjectType: "user",
		Enabled:          true,
		SyncOnInsert:     true,
	}
	f.data.result = &infrastructure.DeliveryResult{DestinationID: "dest-u1"}

	err := f.uc.SyncSignup(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, f.data.deliveries, 1)
	d := f.data.deliveries[0]
	require.Equal(t, entity.OpInsert, d.Operation)
	require.NotContains(t, d.Data, "password_hash")
	require.Equal(t, "dest-u1", f.records.destinationIDs["user/u1"])
}

func TestSyncSignupRequiresDestinationID(t *testing.T) {
	f := newFixture()
	f.records.records["user/u1"] = map[string]any{"email": "ann@example.com"}
	f.configs.configs["user"] = &entity.SyncConfig{
		SupabaseTable:    "user",
		TargetObjectType: "user",
		Enabled:          true,
		SyncOnInsert:     true,
	}
	f.data.result = &infrastructure.DeliveryResult{Response: map[string]any{"status": "success"}}

	err := f.uc.SyncSignup(context.Background(), "u1")
	require.Error(t, err)
	require.Empty(t, f.records.destinationIDs)
}

func TestListingInsertPropagatesHostReference(t *testing.T) {
	f := newFixture()
	f.records.records["user/host-1"] = map[string]any{"bubble_id": "dest-host"}
	f.data.result = &infrastructure.DeliveryResult{DestinationID: "dest-listing"}

	p := pendingItem("listing", entity.OpInsert, map[string]any{
		"title":        "loft",
		"host_user_id": "host-1",
	}, listingConfig())
	f.queue.pending = []*entity.PendingItem{p}

	_, err := f.uc.ProcessQueueDataAPI(context.Background(), 10, "")
	require.NoError(t, err)

	require.Equal(t, []string{"rec-1"}, f.records.referenceLists["user/host-1/listing_ids"])

	// the delivery created the listing; the host's list is verified then
	// patched through the object API
	require.Len(t, f.data.deliveries, 1)
	require.Equal(t, []string{"user/dest-host"}, f.data.gets)
	require.Len(t, f.data.patches, 1)
	patch := f.data.patches[0]
	require.Equal(t, "user", patch.objectType)
	require.Equal(t, "dest-host", patch.destinationID)
	require.Equal(t, map[string]any{"Listings": []string{"dest-listing"}}, patch.data)
}

func TestHostReferenceMirrorSkippedWhenHostMissing(t *testing.T) {
	f := newFixture()
	f.records.records["user/host-1"] = map[string]any{"bubble_id": "dest-host"}
	f.data.result = &infrastructure.DeliveryResult{DestinationID: "dest-listing"}
	f.data.getErr = errors.New("destination has no such object")

	p := pendingItem("listing", entity.OpInsert, map[string]any{
		"title":        "loft",
		"host_user_id": "host-1",
	}, listingConfig())
	f.queue.pending = []*entity.PendingItem{p}

	_, err := f.uc.ProcessQueueDataAPI(context.Background(), 10, "")
	require.NoError(t, err)

	// the local list still gained the listing; only the mirror was skipped
	require.Equal(t, []string{"rec-1"}, f.records.referenceLists["user/host-1/listing_ids"])
	require.Len(t, f.data.gets, 1)
	require.Empty(t, f.data.patches)
}

func TestProcessQueuePacesDeliveries(t *testing.T) {
	f := newFixture()
	f.uc.deliveryDelay = 15 * time.Millisecond
	f.configs.configs["listing"] = listingConfig()

	var items []*entity.PendingItem
	for i := 0; i < 3; i++ {
		items = append(items, pendingItem("listing", entity.OpUpdate, map[string]any{"title": "loft"}, listingConfig()))
	}
	f.queue.pending = items

	start := time.Now()
	result, err := f.uc.ProcessQueue(context.Background(), 10, "")
	require.NoError(t, err)
	require.Equal(t, 3, result.Success)

	// two pauses between three deliveries
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestProcessQueuePacingStopsOnCancel(t *testing.T) {
	f := newFixture()
	f.uc.deliveryDelay = time.Hour
	f.configs.configs["listing"] = listingConfig()
	f.queue.pending = []*entity.PendingItem{
		pendingItem("listing", entity.OpUpdate, map[string]any{"title": "a"}, listingConfig()),
		pendingItem("listing", entity.OpUpdate, map[string]any{"title": "b"}, listingConfig()),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result, err := f.uc.ProcessQueue(ctx, 10, "")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, result.Success)
}
