package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	kafkapc "github.com/splitleasesharath/splitlease-sub017/internal/infrastructure/kafka"
	"github.com/splitleasesharath/splitlease-sub017/internal/usecase"
	"github.com/splitleasesharath/splitlease-sub017/pkg/logger"
)

type KafkaController struct {
	uc     usecase.SyncUseCase
	tc     *kafkapc.TriggerConsumer
	logger logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration
	batchSize      int

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	s usecase.SyncUseCase,
	tc *kafkapc.TriggerConsumer,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	batchSize int,
	workers int,
) *KafkaController {
	return &KafkaController{
		uc:             s,
		tc:             tc,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		batchSize:      batchSize,
		workers:        workers,
	}
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	tasks := make(chan kafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				event, err := c.tc.ReadTrigger(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "KafkaController - Start - c.tc.ReadTrigger")
					}
					continue
				}

				select {
				case tasks <- event:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (c *KafkaController) processMessage(ctx context.Context, event kafka.Message) error {
	var payload Payload
	err := json.Unmarshal(event.Value, &payload)
	if err != nil {
		return fmt.Errorf("KafkaController - processMessage - json.Unmarshal: %w", err)
	}

	if payload.TableName != "" {
		return c.processSyncRequest(ctx, payload)
	}

	result, err := c.uc.ProcessQueue(ctx, c.batchSize, payload.TableFilter)
	if err != nil {
		return fmt.Errorf("KafkaController - processMessage - c.uc.ProcessQueue: %w", err)
	}

	if result.Processed > 0 {
		c.logger.Info("trigger pass done: processed=%d success=%d failed=%d skipped=%d",
			result.Processed, result.Success, result.Failed, result.Skipped)
	}

	return nil
}

// processSyncRequest routes one record-level message: enqueue when the
// producer asked for queued delivery, otherwise sync inline. Either way a
// returned nil lets the worker commit the message.
func (c *KafkaController) processSyncRequest(ctx context.Context, payload Payload) error {
	op := payload.Operation
	if op == "" {
		op = entity.OpUpdate
	}

	if payload.UseQueue {
		_, err := c.uc.Enqueue(ctx, payload.RecordID, []dto.EnqueueItem{{
			Table:     payload.TableName,
			RecordID:  payload.RecordID,
			Operation: op,
			Payload:   payload.Record,
		}})
		if err != nil {
			return fmt.Errorf("KafkaController - processSyncRequest - c.uc.Enqueue: %w", err)
		}

		c.uc.TriggerProcessing(payload.TableName)

		return nil
	}

	result, err := c.uc.SyncSingle(ctx, dto.SyncSingle{
		TableName: payload.TableName,
		RecordID:  payload.RecordID,
		Operation: op,
	})
	if err != nil {
		return fmt.Errorf("KafkaController - processSyncRequest - c.uc.SyncSingle: %w", err)
	}

	if result.Failed > 0 {
		c.logger.Warn("inline sync request failed for %s/%s", payload.TableName, payload.RecordID)
	}

	return nil
}

func (c *KafkaController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for event := range tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "KafkaController - worker - panic")
				}
			}()

			processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
			err := c.processMessage(processCtx, event)
			processCancel()
			if err != nil {
				c.logger.Error(err, "KafkaController - worker - c.processMessage")

				return
			}

			// commit only after the pass has run
			commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
			err = c.tc.CommitTrigger(commitCtx, event)
			commitCancel()
			if err != nil {
				c.logger.Error(err, "KafkaController - worker - c.tc.CommitTrigger")
			}
		}()
	}
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		c.tc.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
