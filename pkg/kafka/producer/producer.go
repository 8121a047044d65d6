package producer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	_defaultDialAttempts = 10
	_defaultDialBackoff  = time.Second
	_defaultBatchTimeout = 50 * time.Millisecond
)

// Producer wraps a kafka.Writer used for publishing processing triggers.
// Messages are keyed, so a Hash balancer keeps every key on one partition.
type Producer struct {
	dialAttempts int
	dialBackoff  time.Duration
	batchTimeout time.Duration

	brokers []string
	Writer  *kafka.Writer
}

func New(ctx context.Context, brokers []string, opts ...Option) (*Producer, error) {
	p := &Producer{
		dialAttempts: _defaultDialAttempts,
		dialBackoff:  _defaultDialBackoff,
		batchTimeout: _defaultBatchTimeout,
		brokers:      brokers,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.Writer = &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: p.batchTimeout,
	}

	if err := p.await(ctx); err != nil {
		return nil, fmt.Errorf("Kafka Producer - New - p.await: %w", err)
	}

	return p, nil
}

func (p *Producer) await(ctx context.Context) error {
	var err error

	for attempt := 1; attempt <= p.dialAttempts; attempt++ {
		if err = p.probe(ctx); err == nil {
			return nil
		}

		log.Printf("Kafka producer is trying to connect, attempt %d/%d", attempt, p.dialAttempts)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.dialBackoff):
		}
	}

	return err
}

func (p *Producer) probe(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("Kafka Producer - kafka.DialContext: %w", err)
	}
	defer conn.Close()

	if _, err = conn.Controller(); err != nil {
		return fmt.Errorf("Kafka Producer - conn.Controller: %w", err)
	}

	return nil
}

func (p *Producer) Close() error {
	if p.Writer == nil {
		return nil
	}

	return p.Writer.Close()
}
