package kafkago

import (
	"context"

	"github.com/NordCoder/kafkaretry"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer adapts a *kafka.Writer into a kafkaretry.Producer, mirroring
// this codebase's kafka.Producer wrapper: one writer per logical output,
// hash-balanced, auto-creating topics it has not seen before.
type Producer struct {
	w   *kafka.Writer
	log *zap.Logger
}

// NewProducer builds a Producer over brokers. Unlike a single-topic
// kafka.Writer, its Topic is left empty so Produce can target any retry
// topic the policy names; each Produce call supplies msg.Topic instead.
func NewProducer(brokers []string, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		log: log.With(zap.String("component", "kafkago.producer")),
	}
}

func (p *Producer) Produce(ctx context.Context, topic string, key, value []byte, headers []kafkaretry.Header) error {
	msg := kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: toKafkaHeaders(headers),
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("retry republish failed", zap.String("topic", topic), zap.Error(err))
		return err
	}
	p.log.Debug("retry republish ok", zap.String("topic", topic), zap.Int("value_len", len(value)))
	return nil
}

func (p *Producer) Close() error { return p.w.Close() }
