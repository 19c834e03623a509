package repository

import (
	"context"

	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
	pkgkafka "PairStream/pkg/kafka"
)

// KafkaBroadcaster fans ticks and alert triggers out to Kafka topics for
// external subscribers. The in-process pipeline never depends on it.
type KafkaBroadcaster struct {
	producer     *pkgkafka.Producer
	tickTopic    string
	triggerTopic string
}

// NewKafkaBroadcaster creates a broadcaster over an existing producer.
func NewKafkaBroadcaster(producer *pkgkafka.Producer, tickTopic, triggerTopic string) *KafkaBroadcaster {
	return &KafkaBroadcaster{producer: producer, tickTopic: tickTopic, triggerTopic: triggerTopic}
}

var _ domrepo.Broadcaster = (*KafkaBroadcaster)(nil)

func tickPayload(t *models.Tick) map[string]interface{} {
	return map[string]interface{}{
		"symbol": t.Symbol,
		"ts":     t.Timestamp.UnixMilli(),
		"price":  t.Price,
		"size":   t.Size,
	}
}

func (b *KafkaBroadcaster) BroadcastTick(ctx context.Context, t *models.Tick) error {
	return b.producer.Publish(ctx, b.tickTopic, []byte(t.Symbol), tickPayload(t))
}

func (b *KafkaBroadcaster) BroadcastTicks(ctx context.Context, ticks []*models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ticks))
	for i, t := range ticks {
		msgs[i] = pkgkafka.Message{Key: []byte(t.Symbol), Value: tickPayload(t)}
	}
	return b.producer.PublishBatch(ctx, b.tickTopic, msgs)
}

func (b *KafkaBroadcaster) BroadcastTrigger(ctx context.Context, tr *models.AlertTrigger) error {
	return b.producer.Publish(ctx, b.triggerTopic, []byte(tr.Symbol), tr)
}

// PublishMessage publishes an arbitrary payload to a topic. Satisfies
// logger.Publisher so aggregated error logs can be shipped through Kafka.
func (b *KafkaBroadcaster) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return b.producer.Publish(ctx, topic, nil, payload)
}

func (b *KafkaBroadcaster) Close() error {
	if b.producer != nil {
		return b.producer.Close()
	}
	return nil
}
