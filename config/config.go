package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP            HTTP
		Log             Log
		PG              PG
		Bubble          Bubble
		S3              S3
		QueueSweeper    QueueSweeper
		Kafka           Kafka
		KafkaController KafkaController
		Swagger         Swagger
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	Bubble struct {
		BaseURL    string        `env:"BUBBLE_BASE_URL,required"`
		APIKey     string        `env:"BUBBLE_API_KEY,required"`
		Timeout    time.Duration `env:"BUBBLE_TIMEOUT" envDefault:"30s"`
		MaxRetries int           `env:"BUBBLE_MAX_RETRIES" envDefault:"3"`
		// DeliveryDelay paces successive calls within one pass so a batch
		// cannot flood the destination's rate limit.
		DeliveryDelay time.Duration `env:"BUBBLE_DELIVERY_DELAY" envDefault:"100ms"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT,required"`
		AccessKey      string        `env:"S3_ACCESS_KEY,required"`
		SecretKey      string        `env:"S3_SECRET_KEY,required"`
		Bucket         string        `env:"S3_BUCKET,required"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS,required"`
		GroupID string   `env:"KAFKA_GROUP_ID,required"`
		Topic   string   `env:"KAFKA_TOPIC,required"`
	}

	QueueSweeper struct {
		PollInterval    time.Duration `env:"QUEUE_SWEEPER_POLL_INTERVAL" envDefault:"30s"`
		RetryInterval   time.Duration `env:"QUEUE_SWEEPER_RETRY_INTERVAL" envDefault:"1m"`
		CleanupInterval time.Duration `env:"QUEUE_SWEEPER_CLEANUP_INTERVAL" envDefault:"24h"`
		PassTimeout     time.Duration `env:"QUEUE_SWEEPER_PASS_TIMEOUT" envDefault:"2m"`
		ShutdownTimeout time.Duration `env:"QUEUE_SWEEPER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize       int           `env:"QUEUE_SWEEPER_BATCH_SIZE" envDefault:"25"`
	}

	KafkaController struct {
		CommitTimeout   time.Duration `env:"KAFKA_CONTROLLER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"KAFKA_CONTROLLER_PROCESS_TIMEOUT" envDefault:"2m"` // one full pass, store round trips and deliveries included
		ShutdownTimeout time.Duration `env:"KAFKA_CONTROLLER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize       int           `env:"KAFKA_CONTROLLER_BATCH_SIZE" envDefault:"25"`
		Workers         int           `env:"KAFKA_CONTROLLER_WORKERS" envDefault:"1"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
