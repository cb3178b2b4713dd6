package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaRemote fans events out over a topic. Every process reads with its own
// consumer group so each one observes every event.
type KafkaRemote struct {
	brokers []string
	topic   string
	groupID string
	writer  *kafka.Writer
	log     *slog.Logger
}

func NewKafkaRemote(brokers []string, topic, instance string, l *slog.Logger) (*KafkaRemote, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if l == nil {
		l = slog.Default()
	}
	return &KafkaRemote{
		brokers: brokers,
		topic:   topic,
		groupID: "storefront-" + instance,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		log: l,
	}, nil
}

func (k *KafkaRemote) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.Key), Value: data}); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (k *KafkaRemote) Listen(ctx context.Context, fn func(Event)) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     k.brokers,
		Topic:       k.topic,
		GroupID:     k.groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			k.log.Warn("kafka_read_error", "topic", k.topic, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		var e Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			k.log.Warn("kafka_decode_error", "topic", k.topic, "error", err)
			continue
		}
		fn(e)
	}
}

func (k *KafkaRemote) Close() error {
	return k.writer.Close()
}
