package kafkago

import (
	"context"
	"strconv"
	"time"

	"github.com/NordCoder/kafkaretry"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// TopicSpec describes a topic to provision ahead of traffic.
type TopicSpec struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	MaxWait           time.Duration
}

func (s TopicSpec) withDefaults() TopicSpec {
	if s.NumPartitions <= 0 {
		s.NumPartitions = 1
	}
	if s.ReplicationFactor <= 0 {
		s.ReplicationFactor = 1
	}
	if s.MaxWait <= 0 {
		s.MaxWait = 5 * time.Second
	}
	return s
}

// EnsureTopic creates spec.Name if it does not exist and waits up to
// spec.MaxWait for it to have at least one partition visible; a topic not
// visible by then is logged, not returned as an error.
func EnsureTopic(ctx context.Context, brokers []string, spec TopicSpec, log *zap.Logger) error {
	return ensureTopics(ctx, brokers, []TopicSpec{spec}, log)
}

// EnsureRetryTopics provisions the full chain of retry topics a
// RetryConfig can ever republish to for (topic, group): attempt 0 through
// the longest non-blocking backoff sequence the config names. Operators
// run this ahead of traffic so the first failure never hits
// AllowAutoTopicCreation on the hot path.
//
// Unlike a single EnsureTopic call, the whole chain is provisioned over
// one dial: a (topic, group) pair always needs its entire retry chain at
// once, so there is no reason to pay for a fresh dial-controller
// round trip per attempt the way one-topic-at-a-time provisioning would.
func EnsureRetryTopics(ctx context.Context, brokers []string, topic, group string, cfg kafkaretry.Config, parts, rf int, log *zap.Logger) error {
	n := nonBlockingHops(cfg)
	if n == 0 {
		return nil
	}
	specs := make([]TopicSpec, n)
	for attempt := 0; attempt < n; attempt++ {
		specs[attempt] = TopicSpec{
			Name:              kafkaretry.RetryTopicName(topic, group, int32(attempt)),
			NumPartitions:     parts,
			ReplicationFactor: rf,
		}
	}
	return ensureTopics(ctx, brokers, specs, log)
}

// ensureTopics dials the cluster controller once, issues a single
// CreateTopics call for every spec, then polls each topic in turn until
// it has at least one partition visible or its own MaxWait elapses. It
// never fails the whole batch over one topic that already existed or one
// that is slow to propagate; a topic not confirmed ready within its
// MaxWait is logged and skipped rather than aborting the remainder.
func ensureTopics(ctx context.Context, brokers []string, specs []TopicSpec, log *zap.Logger) error {
	if len(specs) == 0 {
		return nil
	}
	for i, s := range specs {
		specs[i] = s.withDefaults()
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		if log != nil {
			log.Warn("kafka dial failed", zap.Error(err))
		}
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		if log != nil {
			log.Warn("kafka controller", zap.Error(err))
		}
		return err
	}
	cc, err := kafka.DialContext(ctx, "tcp", controller.Host+":"+strconv.Itoa(controller.Port))
	if err != nil {
		if log != nil {
			log.Warn("kafka dial controller", zap.Error(err))
		}
		return err
	}
	defer cc.Close()

	configs := make([]kafka.TopicConfig, len(specs))
	for i, s := range specs {
		configs[i] = kafka.TopicConfig{
			Topic:             s.Name,
			NumPartitions:     s.NumPartitions,
			ReplicationFactor: s.ReplicationFactor,
		}
	}
	if err := cc.CreateTopics(configs...); err != nil {
		if log != nil {
			log.Debug("create topics (some may already exist)", zap.Int("count", len(configs)), zap.Error(err))
		}
	}

	for _, s := range specs {
		deadline := time.Now().Add(s.MaxWait)
		ready := false
		for time.Now().Before(deadline) {
			ps, err := conn.ReadPartitions(s.Name)
			if err == nil && len(ps) > 0 {
				if log != nil {
					log.Info("topic ready", zap.String("topic", s.Name))
				}
				ready = true
				break
			}
			time.Sleep(200 * time.Millisecond)
		}
		if !ready && log != nil {
			log.Warn("topic not confirmed ready in time", zap.String("topic", s.Name))
		}
	}
	return nil
}

func nonBlockingHops(cfg kafkaretry.Config) int {
	switch c := cfg.(type) {
	case kafkaretry.NonBlockingRetry:
		return len(c.Backoffs)
	case kafkaretry.BlockingFollowedByNonBlocking:
		return len(c.NonBlocking)
	default:
		return 0
	}
}
