// Package sync implements the queue engine: batch processing, retry
// scheduling, compound orchestrations, status reporting and maintenance.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	"github.com/splitleasesharath/splitlease-sub017/internal/infrastructure"
	"github.com/splitleasesharath/splitlease-sub017/internal/mapping"
	"github.com/splitleasesharath/splitlease-sub017/internal/repo"
	"github.com/splitleasesharath/splitlease-sub017/internal/transform"
	"github.com/splitleasesharath/splitlease-sub017/pkg/logger"
	"github.com/splitleasesharath/splitlease-sub017/pkg/types/errs"
)

const (
	_defaultBatchSize = 25

	// triggerTimeout bounds the fire-and-forget trigger publish so a dead
	// broker cannot pile up goroutines forever.
	_triggerTimeout = 5 * time.Second
)

// SyncUseCase orchestrates the outbound sync queue.
type SyncUseCase struct {
	queueRepo  repo.QueueRepo
	configRepo repo.SyncConfigRepo
	recordRepo repo.RecordRepo
	archive    repo.ArchiveRepo
	transactor repo.Transactor

	workflowClient infrastructure.DeliveryClient
	dataClient     infrastructure.ObjectClient
	trigger        infrastructure.TriggerPublisher

	transformer *transform.Transformer
	mapper      *mapping.Mapper

	maxRetries    int
	deliveryDelay time.Duration
	apiKey        string
	baseURL       string

	logger logger.Interface
}

func New(
	queueRepo repo.QueueRepo,
	configRepo repo.SyncConfigRepo,
	recordRepo repo.RecordRepo,
	archive repo.ArchiveRepo,
	transactor repo.Transactor,
	workflowClient infrastructure.DeliveryClient,
	dataClient infrastructure.ObjectClient,
	trigger infrastructure.TriggerPublisher,
	transformer *transform.Transformer,
	mapper *mapping.Mapper,
	maxRetries int,
	deliveryDelay time.Duration,
	baseURL string,
	apiKey string,
	l logger.Interface,
) *SyncUseCase {
	if maxRetries <= 0 {
		maxRetries = entity.DefaultMaxRetries
	}

	return &SyncUseCase{
		queueRepo:      queueRepo,
		configRepo:     configRepo,
		recordRepo:     recordRepo,
		archive:        archive,
		transactor:     transactor,
		workflowClient: workflowClient,
		dataClient:     dataClient,
		trigger:        trigger,
		transformer:    transformer,
		mapper:         mapper,
		maxRetries:     maxRetries,
		deliveryDelay:  deliveryDelay,
		baseURL:        baseURL,
		apiKey:         apiKey,
		logger:         l,
	}
}

func (uc *SyncUseCase) Enqueue(ctx context.Context, correlationID string, items []dto.EnqueueItem) ([]uuid.UUID, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ordered := make([]dto.EnqueueItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	ids := make([]uuid.UUID, 0, len(ordered))

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, in := range ordered {
			if !in.Operation.Valid() {
				return fmt.Errorf("SyncUseCase - Enqueue - %q: %w", in.Operation, errs.ErrUnknownOperation)
			}

			now := time.Now()
			item := &entity.QueueItem{
				ID:             uuid.New(),
				TableName:      in.Table,
				RecordID:       in.RecordID,
				Operation:      in.Operation,
				Payload:        in.Payload,
				Status:         entity.Pending,
				MaxRetries:     uc.maxRetries,
				CreatedAt:      now,
				IdempotencyKey: entity.NewIdempotencyKey(in.Table, in.RecordID, now),
			}
			if in.DestinationID != nil {
				item.Payload = withDestinationID(item.Payload, *in.DestinationID)
			}

			id, err := uc.queueRepo.Enqueue(ctx, item)
			if err != nil {
				return fmt.Errorf("SyncUseCase - Enqueue - uc.queueRepo.Enqueue: %w", err)
			}
			ids = append(ids, id)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("SyncUseCase - Enqueue - uc.transactor.WithinTransaction: %w", err)
	}

	uc.logger.Info("enqueued %d items, correlation_id=%s", len(ids), correlationID)

	return ids, nil
}

// TriggerProcessing publishes a processing trigger in the background. Its
// own failure is swallowed and logged, never surfaced to the producer whose
// business operation caused the trigger.
func (uc *SyncUseCase) TriggerProcessing(tableFilter string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), _triggerTimeout)
		defer cancel()

		if err := uc.trigger.PublishTrigger(ctx, tableFilter); err != nil {
			uc.logger.Error(err, "SyncUseCase - TriggerProcessing - uc.trigger.PublishTrigger")
		}
	}()
}

func (uc *SyncUseCase) ProcessQueue(ctx context.Context, batchSize int, tableFilter string) (*dto.ProcessResult, error) {
	return uc.processBatch(ctx, batchSize, tableFilter, false)
}

func (uc *SyncUseCase) ProcessQueueDataAPI(ctx context.Context, batchSize int, tableFilter string) (*dto.ProcessResult, error) {
	return uc.processBatch(ctx, batchSize, tableFilter, true)
}

func (uc *SyncUseCase) processBatch(ctx context.Context, batchSize int, tableFilter string, dataMode bool) (*dto.ProcessResult, error) {
	if batchSize <= 0 {
		batchSize = _defaultBatchSize
	}

	// a fetch failure is a store failure, it aborts the whole pass
	pending, err := uc.queueRepo.FetchPending(ctx, batchSize, tableFilter)
	if err != nil {
		return nil, fmt.Errorf("SyncUseCase - processBatch - uc.queueRepo.FetchPending: %w", err)
	}

	return uc.processItems(ctx, pending, dataMode)
}

func (uc *SyncUseCase) RetryFailed(ctx context.Context, batchSize int, force bool) (*dto.ProcessResult, error) {
	if batchSize <= 0 {
		batchSize = _defaultBatchSize
	}

	pending, err := uc.queueRepo.FetchRetryable(ctx, batchSize, force)
	if err != nil {
		return nil, fmt.Errorf("SyncUseCase - RetryFailed - uc.queueRepo.FetchRetryable: %w", err)
	}

	// retried items flow through the same per-item processing; direct-object
	// mode because the retry sweep is destination-state driven
	return uc.processItems(ctx, pending, true)
}

func (uc *SyncUseCase) processItems(ctx context.Context, pending []*entity.PendingItem, dataMode bool) (*dto.ProcessResult, error) {
	result := &dto.ProcessResult{}

	// items are handled strictly one at a time so ordering and destination
	// rate limits stay easy to reason about
	for i, p := range pending {
		if i > 0 && uc.deliveryDelay > 0 {
			select {
			case <-ctx.Done():
				return result, fmt.Errorf("SyncUseCase - processItems: %w", ctx.Err())
			case <-time.After(uc.deliveryDelay):
			}
		}

		outcome, err := uc.processItem(ctx, p, dataMode)
		if err != nil {
			// only store errors escape processItem
			return result, fmt.Errorf("SyncUseCase - processItems - uc.processItem: %w", err)
		}

		switch outcome {
		case outcomeSuccess:
			result.Processed++
			result.Success++
		case outcomeFailed:
			result.Processed++
			result.Failed++
		case outcomeSkipped:
			result.Processed++
			result.Skipped++
		case outcomeLost:
			// claimed by a concurrent invocation, not ours to count
		}
	}

	return result, nil
}

type itemOutcome int

const (
	outcomeSuccess itemOutcome = iota
	outcomeFailed
	outcomeSkipped
	outcomeLost
)

func (uc *SyncUseCase) processItem(ctx context.Context, p *entity.PendingItem, dataMode bool) (itemOutcome, error) {
	item := p.Item

	// configuration problems are skips, not failures
	if reason := skipReason(p.Config, item.Operation, dataMode); reason != nil {
		if err := uc.queueRepo.MarkSkipped(ctx, item.ID, reason.Error()); err != nil {
			return 0, fmt.Errorf("uc.queueRepo.MarkSkipped: %w", err)
		}
		uc.logger.Info("skipped item %s (%s/%s): %v", item.ID, item.TableName, item.RecordID, reason)

		return outcomeSkipped, nil
	}

	err := uc.queueRepo.MarkProcessing(ctx, item.ID)
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyClaimed) {
			uc.logger.Debug("item %s already claimed by a concurrent pass", item.ID)

			return outcomeLost, nil
		}

		return 0, fmt.Errorf("uc.queueRepo.MarkProcessing: %w", err)
	}

	delivery := uc.buildDelivery(p, dataMode)

	client := uc.workflowClient
	if dataMode {
		client = uc.dataClient
	}

	deliveryResult, err := client.Deliver(ctx, delivery)
	if err != nil {
		mark := uc.planFailure(item, err)
		if markErr := uc.queueRepo.MarkFailed(ctx, item.ID, mark); markErr != nil {
			return 0, fmt.Errorf("uc.queueRepo.MarkFailed: %w", markErr)
		}
		uc.logger.Warn("delivery failed for item %s (%s/%s), retry_count=%d terminal=%t: %v",
			item.ID, item.TableName, item.RecordID, mark.RetryCount, mark.Terminal, err)

		return outcomeFailed, nil
	}

	if err := uc.queueRepo.MarkCompleted(ctx, item.ID, deliveryResult.Response); err != nil {
		return 0, fmt.Errorf("uc.queueRepo.MarkCompleted: %w", err)
	}

	// destination-id linkage is best-effort: the destination write already
	// succeeded, a writeback failure must not fail the item
	if dataMode && item.Operation == entity.OpInsert && deliveryResult.DestinationID != "" {
		uc.writeBackDestinationID(ctx, item, deliveryResult.DestinationID)
	}

	return outcomeSuccess, nil
}

func (uc *SyncUseCase) buildDelivery(p *entity.PendingItem, dataMode bool) infrastructure.Delivery {
	item := p.Item
	cfg := p.Config

	delivery := infrastructure.Delivery{
		Target:         cfg.Target(!dataMode),
		RecordID:       item.RecordID,
		Operation:      item.Operation,
		IdempotencyKey: item.IdempotencyKey,
	}

	if dataMode {
		delivery.Target = uc.mapper.DestinationTable(cfg.TargetObjectType)
		if id, ok := item.Payload[destinationIDField].(string); ok {
			delivery.DestinationID = id
		}
	}

	if item.Operation != entity.OpDelete {
		delivery.Data = uc.transformer.TransformRecord(item.Payload, cfg.FieldMapping, cfg.ExcludedFields)
	}

	return delivery
}

func (uc *SyncUseCase) writeBackDestinationID(ctx context.Context, item *entity.QueueItem, destinationID string) {
	err := uc.recordRepo.SetDestinationID(ctx, item.TableName, item.RecordID, destinationID)
	if err != nil {
		uc.logger.Error(err, "SyncUseCase - writeBackDestinationID - uc.recordRepo.SetDestinationID")

		return
	}

	// a freshly mirrored listing is appended to its host's reference list
	if item.TableName == listingTable {
		uc.propagateListingReference(ctx, item, destinationID)
	}
}

func (uc *SyncUseCase) SyncSingle(ctx context.Context, req dto.SyncSingle) (*dto.ProcessResult, error) {
	op := req.Operation
	if op == "" {
		op = entity.OpUpdate
	}
	if !op.Valid() {
		return nil, fmt.Errorf("SyncUseCase - SyncSingle - %q: %w", req.Operation, errs.ErrUnknownOperation)
	}

	record, err := uc.recordRepo.GetRecord(ctx, req.TableName, req.RecordID)
	if err != nil {
		return nil, fmt.Errorf("SyncUseCase - SyncSingle - uc.recordRepo.GetRecord: %w", err)
	}

	if req.UseQueue {
		_, err := uc.Enqueue(ctx, req.RecordID, []dto.EnqueueItem{{
			Table:     req.TableName,
			RecordID:  req.RecordID,
			Operation: op,
			Payload:   record,
		}})
		if err != nil {
			return nil, fmt.Errorf("SyncUseCase - SyncSingle - uc.Enqueue: %w", err)
		}

		uc.TriggerProcessing(req.TableName)

		return &dto.ProcessResult{}, nil
	}

	cfg, err := uc.configRepo.GetByTable(ctx, req.TableName)
	if err != nil {
		if errors.Is(err, errs.ErrNoSyncConfig) {
			return &dto.ProcessResult{Processed: 1, Skipped: 1}, nil
		}

		return nil, fmt.Errorf("SyncUseCase - SyncSingle - uc.configRepo.GetByTable: %w", err)
	}

	dataMode := cfg.TargetWorkflow == ""
	if reason := skipReason(cfg, op, dataMode); reason != nil {
		return &dto.ProcessResult{Processed: 1, Skipped: 1}, nil
	}

	now := time.Now()
	item := &entity.QueueItem{
		ID:             uuid.New(),
		TableName:      req.TableName,
		RecordID:       req.RecordID,
		Operation:      op,
		Payload:        record,
		CreatedAt:      now,
		IdempotencyKey: entity.NewIdempotencyKey(req.TableName, req.RecordID, now),
	}

	delivery := uc.buildDelivery(&entity.PendingItem{Item: item, Config: cfg}, dataMode)

	client := uc.workflowClient
	if dataMode {
		client = uc.dataClient
	}

	deliveryResult, err := client.Deliver(ctx, delivery)
	if err != nil {
		uc.logger.Warn("immediate sync failed for %s/%s: %v", req.TableName, req.RecordID, err)

		return &dto.ProcessResult{Processed: 1, Failed: 1}, nil
	}

	if dataMode && op == entity.OpInsert && deliveryResult.DestinationID != "" {
		uc.writeBackDestinationID(ctx, item, deliveryResult.DestinationID)
	}

	return &dto.ProcessResult{Processed: 1, Success: 1}, nil
}

func skipReason(cfg *entity.SyncConfig, op entity.Operation, dataMode bool) error {
	switch {
	case cfg == nil:
		return errs.ErrNoSyncConfig
	case !cfg.Enabled:
		return errs.ErrSyncDisabled
	case cfg.Target(!dataMode) == "":
		return errs.ErrNoTarget
	case !cfg.OperationEnabled(op):
		return errs.ErrOperationDisabled
	}

	return nil
}

func withDestinationID(payload map[string]any, destinationID string) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out[destinationIDField] = destinationID

	return out
}
