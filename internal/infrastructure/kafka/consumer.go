package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/splitleasesharath/splitlease-sub017/pkg/kafka/consumer"
)

// TriggerConsumer reads processing triggers from the sync topic.
type TriggerConsumer struct {
	*consumer.Consumer
}

func NewTriggerConsumer(consumer *consumer.Consumer) *TriggerConsumer {
	return &TriggerConsumer{consumer}
}

func (tc *TriggerConsumer) ReadTrigger(ctx context.Context) (kafka.Message, error) {
	msg, err := tc.Reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("TriggerConsumer - ReadTrigger - tc.Reader.FetchMessage: %w", err)
	}

	return msg, nil
}

func (tc *TriggerConsumer) CommitTrigger(ctx context.Context, msg kafka.Message) error {
	err := tc.Reader.CommitMessages(ctx, msg)
	if err != nil {
		return fmt.Errorf("TriggerConsumer - CommitTrigger - tc.Reader.CommitMessages: %w", err)
	}

	return nil
}

func (tc *TriggerConsumer) Close() error {
	err := tc.Consumer.Close()
	if err != nil {
		return fmt.Errorf("TriggerConsumer - Close: %w", err)
	}

	return nil
}
