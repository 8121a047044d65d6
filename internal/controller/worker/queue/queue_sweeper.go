package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/internal/usecase"
	"github.com/splitleasesharath/splitlease-sub017/pkg/logger"
)

// QueueSweeper periodically drives the queue even when no trigger arrives:
// a processing pass, a retry pass for items whose backoff has elapsed, and a
// retention cleanup pass.
type QueueSweeper struct {
	uc     usecase.SyncUseCase
	logger logger.Interface

	pollInterval    time.Duration
	retryInterval   time.Duration
	cleanupInterval time.Duration
	passTimeout     time.Duration
	batchSize       int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	uc usecase.SyncUseCase,
	l logger.Interface,
	pollInterval time.Duration,
	retryInterval time.Duration,
	cleanupInterval time.Duration,
	passTimeout time.Duration,
	batchSize int,
) *QueueSweeper {
	return &QueueSweeper{
		uc:              uc,
		logger:          l,
		pollInterval:    pollInterval,
		retryInterval:   retryInterval,
		cleanupInterval: cleanupInterval,
		passTimeout:     passTimeout,
		batchSize:       batchSize,
	}
}

func (s *QueueSweeper) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("QueueSweeper - Start - worker already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	// 1. processing pass over fresh pending items
	s.worker(s.pollInterval, func() {
		passCtx, passCancel := context.WithTimeout(s.ctx, s.passTimeout)
		defer passCancel()

		result, err := s.uc.ProcessQueue(passCtx, s.batchSize, "")
		if err != nil {
			s.logger.Error(err, "QueueSweeper - Start - worker - s.uc.ProcessQueue")

			return
		}
		s.logPass("process", result)
	})

	// 2. retry pass over items whose backoff window has elapsed
	s.worker(s.retryInterval, func() {
		passCtx, passCancel := context.WithTimeout(s.ctx, s.passTimeout)
		defer passCancel()

		result, err := s.uc.RetryFailed(passCtx, s.batchSize, false)
		if err != nil {
			s.logger.Error(err, "QueueSweeper - Start - worker - s.uc.RetryFailed")

			return
		}
		s.logPass("retry", result)
	})

	// 3. retention cleanup of terminal items
	s.worker(s.cleanupInterval, func() {
		passCtx, passCancel := context.WithTimeout(s.ctx, s.passTimeout)
		defer passCancel()

		result, err := s.uc.Cleanup(passCtx, dto.CleanupRequest{})
		if err != nil {
			s.logger.Error(err, "QueueSweeper - Start - worker - s.uc.Cleanup")

			return
		}
		if result.Completed+result.Failed+result.Skipped > 0 {
			s.logger.Info("cleanup pass done: completed=%d failed=%d skipped=%d archived=%d",
				result.Completed, result.Failed, result.Skipped, result.Archived)
		}
	})

	return nil
}

func (s *QueueSweeper) logPass(name string, result *dto.ProcessResult) {
	if result.Processed == 0 {
		return
	}

	s.logger.Info("%s pass done: processed=%d success=%d failed=%d skipped=%d",
		name, result.Processed, result.Success, result.Failed, result.Skipped)
}

func (s *QueueSweeper) worker(interval time.Duration, task func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (s *QueueSweeper) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
