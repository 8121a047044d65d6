package consumer

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
	_defaultMaxWait      = 500 * time.Millisecond
)

// Consumer wraps a kafka.Reader tuned for small trigger payloads:
// MinBytes of 1 so a single message is returned without waiting for a batch.
type Consumer struct {
	dialAttempts int
	dialBackoff  time.Duration
	maxWait      time.Duration

	brokers []string
	groupID string
	topic   string

	Reader *kafka.Reader
}

func New(ctx context.Context, brokers []string, groupID, topic string, opts ...Option) (*Consumer, error) {
	c := &Consumer{
		dialAttempts: _defaultDialAttempts,
		dialBackoff:  _defaultDialBackoff,
		maxWait:      _defaultMaxWait,
		brokers:      brokers,
		groupID:      groupID,
		topic:        topic,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.brokers,
		GroupID:     c.groupID,
		Topic:       c.topic,
		MinBytes:    1,
		MaxBytes:    1e6,
		MaxWait:     c.maxWait,
		StartOffset: kafka.LastOffset,
	})

	if err := c.await(ctx); err != nil {
		return nil, fmt.Errorf("Kafka Consumer - New - c.await: %w", err)
	}

	return c, nil
}

func (c *Consumer) await(ctx context.Context) error {
	var err error

	for attempt := 1; attempt <= c.dialAttempts; attempt++ {
		if err = c.probe(ctx); err == nil {
			return nil
		}

		log.Printf("Kafka consumer is trying to connect, attempt %d/%d", attempt, c.dialAttempts)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.dialBackoff):
		}
	}

	return err
}

func (c *Consumer) probe(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", c.brokers[0])
	if err != nil {
		return fmt.Errorf("Kafka Consumer - kafka.DialContext: %w", err)
	}
	defer conn.Close()

	if _, err = conn.ReadPartitions(c.topic); err != nil {
		return fmt.Errorf("Kafka Consumer - conn.ReadPartitions: %w", err)
	}

	return nil
}

func (c *Consumer) Close() error {
	if c.Reader == nil {
		return nil
	}

	return c.Reader.Close()
}
