package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/splitleasesharath/splitlease-sub017/pkg/kafka/producer"
)

// TriggerEvent asks whoever consumes the sync topic to run a processing pass
// soon. TableFilter optionally narrows the pass to one source table.
type TriggerEvent struct {
	TableFilter string    `json:"table_filter,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// TriggerProducer publishes processing triggers to the sync topic.
type TriggerProducer struct {
	*producer.Producer
	topic string
}

func NewTriggerProducer(producer *producer.Producer, topic string) *TriggerProducer {
	return &TriggerProducer{
		producer,
		topic,
	}
}

func (tp *TriggerProducer) PublishTrigger(ctx context.Context, tableFilter string) error {
	value, err := json.Marshal(TriggerEvent{
		TableFilter: tableFilter,
		RequestedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("TriggerProducer - PublishTrigger - json.Marshal: %w", err)
	}

	msg := kafka.Message{
		Topic: tp.topic,
		Key:   []byte(tableFilter),
		Value: value,
	}

	err = tp.Writer.WriteMessages(ctx, msg)
	if err != nil {
		return fmt.Errorf("TriggerProducer - PublishTrigger - tp.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (tp *TriggerProducer) Close() error {
	err := tp.Producer.Close()
	if err != nil {
		return fmt.Errorf("TriggerProducer - Close: %w", err)
	}

	return nil
}
