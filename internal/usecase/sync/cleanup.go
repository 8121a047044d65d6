package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
)

// Default retention windows, in days.
const (
	_defaultCompletedRetention = 7
	_defaultFailedRetention    = 30
	_defaultSkippedRetention   = 7
)

// Cleanup purges terminal items past their retention window. Pending and
// processing items are never touched regardless of age. When an archive
// store is configured the purged rows are written there inside the same
// transaction, so a failed archive rolls the purge back.
func (uc *SyncUseCase) Cleanup(ctx context.Context, req dto.CleanupRequest) (*dto.CleanupResult, error) {
	retention := map[entity.Status]int{
		entity.Completed: defaultDays(req.CompletedOlderThanDays, _defaultCompletedRetention),
		entity.Failed:    defaultDays(req.FailedOlderThanDays, _defaultFailedRetention),
		entity.Skipped:   defaultDays(req.SkippedOlderThanDays, _defaultSkippedRetention),
	}

	result := &dto.CleanupResult{}

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var archived []*entity.QueueItem

		for _, status := range []entity.Status{entity.Completed, entity.Failed, entity.Skipped} {
			cutoff := time.Now().AddDate(0, 0, -retention[status])

			items, err := uc.queueRepo.Purge(ctx, status, cutoff)
			if err != nil {
				return fmt.Errorf("uc.queueRepo.Purge: %w", err)
			}

			switch status {
			case entity.Completed:
				result.Completed = int64(len(items))
			case entity.Failed:
				result.Failed = int64(len(items))
			case entity.Skipped:
				result.Skipped = int64(len(items))
			}

			archived = append(archived, items...)
		}

		if uc.archive != nil && len(archived) > 0 {
			key := fmt.Sprintf("archive/sync-queue/%s.ndjson", time.Now().UTC().Format("2006-01-02T15-04-05"))
			if err := uc.archive.ArchiveItems(ctx, key, archived); err != nil {
				return fmt.Errorf("uc.archive.ArchiveItems: %w", err)
			}
			result.Archived = len(archived)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("SyncUseCase - Cleanup - uc.transactor.WithinTransaction: %w", err)
	}

	total := result.Completed + result.Failed + result.Skipped
	if total > 0 {
		uc.logger.Info("cleanup removed %d items (completed=%d failed=%d skipped=%d archived=%d)",
			total, result.Completed, result.Failed, result.Skipped, result.Archived)
	}

	return result, nil
}

func defaultDays(days, fallback int) int {
	if days <= 0 {
		return fallback
	}

	return days
}
