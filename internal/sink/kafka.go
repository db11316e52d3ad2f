package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andrej220/netaudit/internal/lg"
	dm "github.com/andrej220/netaudit/pkg/shared-models"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Kafka publishes one message per device, keyed by hostname so all runs of
// a device land on the same partition.
type Kafka struct {
	writer messageWriter
	topic  string
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Publish(ctx context.Context, records []dm.RunRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		value, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record for %s: %w", rec.Hostname, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(rec.Hostname),
			Value: value,
			Time:  time.Now(),
		})
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		if errors.Is(err, kafka.UnknownTopicOrPartition) {
			lg.FromContext(ctx).Error("Kafka topic does not exist",
				lg.String("topic", k.topic),
				lg.String("action", "Create the topic manually or enable auto-creation"))
		}
		return fmt.Errorf("write to topic %s: %w", k.topic, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
