package kafkago

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/NordCoder/kafkaretry"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumerConfig mirrors this codebase's kafka.ConsumerConfig.
type ConsumerConfig struct {
	Brokers       []string
	GroupID       string
	Topic         string
	FromBeginning bool
	Logger        *zap.Logger
}

// Consumer wraps a *kafka.Reader and drives a *kafkaretry.Handler over
// it: fetch, Handle, commit-on-success, backoff-and-retry on fetch error.
// It never advances the committed group offset on a non-nil return from
// Handle, honoring the core's "handle returns success iff the record may
// be acknowledged" contract.
type Consumer struct {
	reader *kafka.Reader
	log    *zap.Logger
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	start := kafka.LastOffset
	if cfg.FromBeginning {
		start = kafka.FirstOffset
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:               cfg.Brokers,
		GroupID:               cfg.GroupID,
		Topic:                 cfg.Topic,
		StartOffset:           start,
		WatchPartitionChanges: true,

		MinBytes:          1e3,
		MaxBytes:          10e6,
		SessionTimeout:    10 * time.Second,
		RebalanceTimeout:  15 * time.Second,
		HeartbeatInterval: 3 * time.Second,
	})

	return &Consumer{
		reader: r,
		log: log.With(
			zap.String("component", "kafkago.consumer"),
			zap.String("topic", cfg.Topic),
			zap.String("group", cfg.GroupID),
		),
	}
}

// Consume runs until ctx is canceled or the reader is closed. Every
// fetched message is converted to a kafkaretry.ConsumerRecord and handed
// to handler.Handle; only a nil return commits the message.
//
// Unlike a plain message handler, handler already owns its own retry
// policy: a non-blocking failure is republished to a retry topic and
// acknowledged, and a blocking failure sleeps and re-invokes the user
// handler in place before Handle ever returns at all. So a non-nil
// return here is not "transient failure, move on and it'll get
// redelivered" the way it would be for an ordinary handler func — it
// means the dispatcher itself gave up (context canceled, or a blocking
// schedule exhausted with no non-blocking phase to hand off to), and
// this partition is now stalled behind the unacknowledged record until
// an operator override releases it or a restart redelivers from the
// last commit. That is rarer and more severe than a routine fetch
// retry, which is why it gets its own log line instead of reusing the
// fetch-retry one.
func (c *Consumer) Consume(ctx context.Context, handler *kafkaretry.Handler) error {
	c.log.Info("consumer started")

	backoff := 200 * time.Millisecond
	const maxBackoff = 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer stopped (ctx canceled)")
			return ctx.Err()
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer stopped (ctx canceled)")
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				c.log.Debug("fetch EOF; retry", zap.Duration("backoff", backoff))
			} else {
				c.log.Warn("fetch failed; retry", zap.Error(err), zap.Duration("backoff", backoff))
			}
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = 200 * time.Millisecond

		rec := ToRecord(msg)
		if err := handler.Handle(ctx, rec); err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer stopped mid-record (ctx canceled)", zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))
				return ctx.Err()
			}
			c.log.Error("retry schedule exhausted without a commit; partition stalled behind this offset",
				zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset), zap.Error(err))
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				c.log.Info("commit interrupted by context cancel")
				return ctx.Err()
			}
			c.log.Warn("commit failed; will retry later", zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }
