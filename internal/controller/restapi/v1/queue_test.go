package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/pkg/logger"
	"github.com/splitleasesharath/splitlease-sub017/pkg/types/errs"
)

type stubUseCase struct {
	processResult *dto.ProcessResult
	processErr    error
	enqueuedIDs   []uuid.UUID
	statusReport  *dto.StatusReport
	cleanupResult *dto.CleanupResult
	builtRequest  *dto.BuiltRequest
	signupErr     error
	syncErr       error

	lastBatchSize   int
	lastTableFilter string
	lastForce       bool
	triggered       []string
	enqueueItems    []dto.EnqueueItem
}

func (s *stubUseCase) Enqueue(_ context.Context, _ string, items []dto.EnqueueItem) ([]uuid.UUID, error) {
	s.enqueueItems = items
	return s.enqueuedIDs, nil
}

func (s *stubUseCase) TriggerProcessing(tableFilter string) {
	s.triggered = append(s.triggered, tableFilter)
}

func (s *stubUseCase) ProcessQueue(_ context.Context, batchSize int, tableFilter string) (*dto.ProcessResult, error) {
	s.lastBatchSize = batchSize
	s.lastTableFilter = tableFilter
	return s.processResult, s.processErr
}

func (s *stubUseCase) ProcessQueueDataAPI(_ context.Context, batchSize int, tableFilter string) (*dto.ProcessResult, error) {
	s.lastBatchSize = batchSize
	s.lastTableFilter = tableFilter
	return s.processResult, s.processErr
}

func (s *stubUseCase) RetryFailed(_ context.Context, batchSize int, force bool) (*dto.ProcessResult, error) {
	s.lastBatchSize = batchSize
	s.lastForce = force
	return s.processResult, s.processErr
}

func (s *stubUseCase) SyncSingle(_ context.Context, _ dto.SyncSingle) (*dto.ProcessResult, error) {
	return s.processResult, s.syncErr
}

func (s *stubUseCase) Status(_ context.Context, _ dto.StatusRequest) (*dto.StatusReport, error) {
	return s.statusReport, nil
}

func (s *stubUseCase) Cleanup(_ context.Context, _ dto.CleanupRequest) (*dto.CleanupResult, error) {
	return s.cleanupResult, nil
}

func (s *stubUseCase) BuildRequest(_ context.Context, _ dto.BuildRequest) (*dto.BuiltRequest, error) {
	return s.builtRequest, nil
}

func (s *stubUseCase) SyncSignup(_ context.Context, _ string) error {
	return s.signupErr
}

func newTestApp(stub *stubUseCase) *fiber.App {
	app := fiber.New()
	NewSyncRoutes(app.Group("/v1"), stub, logger.New("error"))

	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(raw, &out))

	return out
}

func TestProcessQueueEndpoint(t *testing.T) {
	stub := &stubUseCase{processResult: &dto.ProcessResult{Processed: 2, Success: 2}}
	app := newTestApp(stub)

	resp := postJSON(t, app, "/v1/queue/process", map[string]any{"batch_size": 50, "table": "listing"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[dto.ProcessResult](t, resp)
	require.Equal(t, 2, result.Success)
	require.Equal(t, 50, stub.lastBatchSize)
	require.Equal(t, "listing", stub.lastTableFilter)
}

func TestProcessQueueRejectsBadBatchSize(t *testing.T) {
	stub := &stubUseCase{}
	app := newTestApp(stub)

	resp := postJSON(t, app, "/v1/queue/process", map[string]any{"batch_size": 100000})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRetryEndpointPassesForce(t *testing.T) {
	stub := &stubUseCase{processResult: &dto.ProcessResult{}}
	app := newTestApp(stub)

	resp := postJSON(t, app, "/v1/queue/retry", map[string]any{"force": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, stub.lastForce)
}

func TestEnqueueEndpoint(t *testing.T) {
	id := uuid.New()
	stub := &stubUseCase{enqueuedIDs: []uuid.UUID{id}}
	app := newTestApp(stub)

	resp := postJSON(t, app, "/v1/queue/enqueue", map[string]any{
		"correlation_id": "corr-1",
		"items": []map[string]any{
			{"table": "listing", "record_id": "l1", "operation": "INSERT"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decode[map[string][]string](t, resp)
	require.Equal(t, []string{id.String()}, body["queue_ids"])
	require.Equal(t, []string{""}, stub.triggered, "enqueue triggers a processing pass")
}

func TestEnqueueEndpointRejectsEmptyItems(t *testing.T) {
	stub := &stubUseCase{}
	app := newTestApp(stub)

	resp := postJSON(t, app, "/v1/queue/enqueue", map[string]any{"items": []map[string]any{}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEnqueueEndpointRejectsUnknownOperation(t *testing.T) {
	stub := &stubUseCase{}
	app := newTestApp(stub)

	resp := postJSON(t, app, "/v1/queue/enqueue", map[string]any{
		"items": []map[string]any{
			{"table": "listing", "record_id": "l1", "operation": "MERGE"},
		},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, stub.triggered)
}

func TestStatusEndpoint(t *testing.T) {
	stub := &stubUseCase{statusReport: &dto.StatusReport{Pending: 7}}
	app := newTestApp(stub)

	req := httptest.NewRequest(http.MethodGet, "/v1/queue/status?by_table=true", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decode[dto.StatusReport](t, resp)
	require.Equal(t, 7, report.Pending)
}

func TestCleanupEndpointRejectsBadCutoff(t *testing.T) {
	stub := &stubUseCase{cleanupResult: &dto.CleanupResult{}}
	app := newTestApp(stub)

	resp := postJSON(t, app, "/v1/queue/cleanup", map[string]any{"completed_older_than_days": 9000})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSyncSingleEndpointNotFound(t *testing.T) {
	stub := &stubUseCase{syncErr: errs.ErrRecordNotFound}
	app := newTestApp(stub)

	resp := postJSON(t, app, "/v1/sync/single", map[string]any{"table_name": "listing", "record_id": "missing"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSyncSignupEndpoint(t *testing.T) {
	stub := &stubUseCase{}
	app := newTestApp(stub)

	resp := postJSON(t, app, "/v1/sync/signup", map[string]any{"user_id": "u1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	require.Equal(t, true, body["synced"])
}

func TestBuildRequestEndpoint(t *testing.T) {
	stub := &stubUseCase{builtRequest: &dto.BuiltRequest{Method: "POST", Path: "/api/1.1/obj/listing"}}
	app := newTestApp(stub)

	resp := postJSON(t, app, "/v1/requests/build", map[string]any{"operation": "INSERT", "table_name": "listing"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	built := decode[dto.BuiltRequest](t, resp)
	require.Equal(t, "/api/1.1/obj/listing", built.Path)
}
