package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
)

const _defaultErrorLimit = 10

// Status assembles the aggregated queue health view. Each metric is an
// independent read, so they run in parallel.
func (uc *SyncUseCase) Status(ctx context.Context, req dto.StatusRequest) (*dto.StatusReport, error) {
	report := &dto.StatusReport{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, lastHour, err := uc.queueRepo.Counts(gctx, time.Now().Add(-time.Hour))
		if err != nil {
			return fmt.Errorf("uc.queueRepo.Counts: %w", err)
		}

		report.Pending = counts.ByStatus[entity.Pending]
		report.Processing = counts.ByStatus[entity.Processing]
		report.CompletedLastHour = lastHour[entity.Completed]
		report.FailedLastHour = lastHour[entity.Failed]
		report.OldestPendingAt = counts.OldestPendingAt
		report.LastProcessedAt = counts.LastProcessedAt

		return nil
	})

	g.Go(func() error {
		configs, err := uc.configRepo.ListEnabled(gctx)
		if err != nil {
			return fmt.Errorf("uc.configRepo.ListEnabled: %w", err)
		}
		report.Configs = configs

		return nil
	})

	if req.IncludeByTable {
		g.Go(func() error {
			byTable, err := uc.queueRepo.CountsByTable(gctx)
			if err != nil {
				return fmt.Errorf("uc.queueRepo.CountsByTable: %w", err)
			}
			report.ByTable = byTable

			return nil
		})
	}

	if req.IncludeRecentErrors {
		limit := req.ErrorLimit
		if limit <= 0 {
			limit = _defaultErrorLimit
		}

		g.Go(func() error {
			recent, err := uc.queueRepo.RecentFailed(gctx, limit)
			if err != nil {
				return fmt.Errorf("uc.queueRepo.RecentFailed: %w", err)
			}
			report.RecentErrors = recent

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("SyncUseCase - Status - g.Wait: %w", err)
	}

	return report, nil
}
