package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
)

type (
	// SyncUseCase is the queue engine's full command surface.
	SyncUseCase interface {
		// Enqueue persists ordered work items under one correlation id and
		// returns their ids.
		Enqueue(ctx context.Context, correlationID string, items []dto.EnqueueItem) ([]uuid.UUID, error)
		// TriggerProcessing asks for a processing pass soon. It never blocks
		// and never returns an error; trigger failures are logged only.
		TriggerProcessing(tableFilter string)

		// ProcessQueue runs one workflow-mode pass.
		ProcessQueue(ctx context.Context, batchSize int, tableFilter string) (*dto.ProcessResult, error)
		// ProcessQueueDataAPI runs one direct-object-mode pass.
		ProcessQueueDataAPI(ctx context.Context, batchSize int, tableFilter string) (*dto.ProcessResult, error)
		// RetryFailed re-drives previously failed items with remaining
		// budget, honoring backoff unless force is set.
		RetryFailed(ctx context.Context, batchSize int, force bool) (*dto.ProcessResult, error)
		// SyncSingle syncs one record immediately or enqueues it.
		SyncSingle(ctx context.Context, req dto.SyncSingle) (*dto.ProcessResult, error)

		Status(ctx context.Context, req dto.StatusRequest) (*dto.StatusReport, error)
		Cleanup(ctx context.Context, req dto.CleanupRequest) (*dto.CleanupResult, error)
		// BuildRequest returns the request a delivery would send, without
		// executing it.
		BuildRequest(ctx context.Context, req dto.BuildRequest) (*dto.BuiltRequest, error)

		// SyncSignup mirrors a freshly created user to the destination and
		// writes the assigned id back. Any step failing aborts the flow.
		SyncSignup(ctx context.Context, userID string) error
	}
)
