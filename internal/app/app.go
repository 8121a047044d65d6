package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/splitleasesharath/splitlease-sub017/config"
	kafkactrl "github.com/splitleasesharath/splitlease-sub017/internal/controller/kafka"
	"github.com/splitleasesharath/splitlease-sub017/internal/controller/restapi"
	"github.com/splitleasesharath/splitlease-sub017/internal/controller/worker/queue"
	"github.com/splitleasesharath/splitlease-sub017/internal/infrastructure/bubble"
	infrakafka "github.com/splitleasesharath/splitlease-sub017/internal/infrastructure/kafka"
	"github.com/splitleasesharath/splitlease-sub017/internal/mapping"
	"github.com/splitleasesharath/splitlease-sub017/internal/repo/persistent"
	"github.com/splitleasesharath/splitlease-sub017/internal/transform"
	syncuc "github.com/splitleasesharath/splitlease-sub017/internal/usecase/sync"
	"github.com/splitleasesharath/splitlease-sub017/pkg/httpserver"
	"github.com/splitleasesharath/splitlease-sub017/pkg/kafka/consumer"
	"github.com/splitleasesharath/splitlease-sub017/pkg/kafka/producer"
	"github.com/splitleasesharath/splitlease-sub017/pkg/logger"
	"github.com/splitleasesharath/splitlease-sub017/pkg/postgres"
	"github.com/splitleasesharath/splitlease-sub017/pkg/s3client"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	// Use-Case
	mapper := mapping.New()
	syncUseCase := syncuc.New(
		persistent.NewQueueRepo(pg),
		persistent.NewSyncConfigRepo(pg),
		persistent.NewRecordRepo(pg),
		persistent.NewArchiveRepo(s3c, cfg.S3.Bucket),
		pg,
		bubble.NewWorkflowClient(cfg.Bubble.BaseURL, cfg.Bubble.APIKey, cfg.Bubble.Timeout),
		bubble.NewDataClient(cfg.Bubble.BaseURL, cfg.Bubble.APIKey, cfg.Bubble.Timeout),
		infrakafka.NewTriggerProducer(kafkaProducer, cfg.Kafka.Topic),
		transform.New(mapper, l),
		mapper,
		cfg.Bubble.MaxRetries,
		cfg.Bubble.DeliveryDelay,
		cfg.Bubble.BaseURL,
		cfg.Bubble.APIKey,
		l,
	)

	// Queue Sweeper Worker
	queueSweeper := queue.New(
		syncUseCase,
		l,
		cfg.QueueSweeper.PollInterval,
		cfg.QueueSweeper.RetryInterval,
		cfg.QueueSweeper.CleanupInterval,
		cfg.QueueSweeper.PassTimeout,
		cfg.QueueSweeper.BatchSize,
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New: %w", err))
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		syncUseCase,
		infrakafka.NewTriggerConsumer(kafkaConsumer),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		cfg.KafkaController.BatchSize,
		cfg.KafkaController.Workers,
	)

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewRouter(httpServer.App, cfg, syncUseCase, l)

	// Start Components
	err = queueSweeper.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - queueSweeper.Start: %w", err))
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	qsShutdownCtx, qsShutdownCancel := context.WithTimeout(ctx, cfg.QueueSweeper.ShutdownTimeout)
	defer qsShutdownCancel()
	err = queueSweeper.Shutdown(qsShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - queueSweeper.Shutdown: %w", err))
	}

	kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
	defer kcShutdownCancel()
	err = kafkaController.Shutdown(kcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - kafkaController.Shutdown: %w", err))
	}
}
