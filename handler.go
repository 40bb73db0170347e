package kafkaretry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var handlerTracer = otel.Tracer("kafkaretry.handler")

// Handler is the wrapped handler returned by New. Handle is its only
// public operation.
type Handler struct {
	userHandler UserHandler
	cfg         Config
	producer    Producer
	sub         Subscription
	store       Store
	clock       Clock
	metrics     MetricsSink
	log         *zap.Logger
}

// Option configures a Handler built by New.
type Option func(*Handler)

// WithLogger attaches a logger; nil is ignored, and the default is a
// no-op logger, not zap.L(), so library consumers opt in explicitly.
func WithLogger(log *zap.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log.With(zap.String("component", "kafkaretry.handler"))
		}
	}
}

// WithMetricsSink overrides the default NopMetricsSink.
func WithMetricsSink(sink MetricsSink) Option {
	return func(h *Handler) {
		if sink != nil {
			h.metrics = sink
		}
	}
}

// WithClock overrides the default SystemClock; primarily for tests.
func WithClock(clock Clock) Option {
	return func(h *Handler) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// New wraps userHandler with the retry policy described by cfg. producer
// publishes non-blocking republishes; subscription supplies the topic and
// group the policy uses to recognize retry-topic records; store is the
// blocking state store shared with any operator control surface.
func New(userHandler UserHandler, cfg Config, producer Producer, subscription Subscription, store Store, opts ...Option) *Handler {
	h := &Handler{
		userHandler: userHandler,
		cfg:         cfg,
		producer:    producer,
		sub:         subscription,
		store:       store,
		clock:       SystemClock,
		metrics:     NopMetricsSink{},
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithRetries is an alias for New matching the exposed-operation name in
// §6 (withRetries(userHandler, retryConfig, producer, subscription,
// stateStore, retryHelper) -> wrappedHandler).
func WithRetries(userHandler UserHandler, cfg Config, producer Producer, subscription Subscription, store Store, opts ...Option) *Handler {
	return New(userHandler, cfg, producer, subscription, store, opts...)
}

// Handle implements §4.6. It never acknowledges or advances offsets
// itself: a nil return means the caller may acknowledge rec; a non-nil
// return means it must not.
func (h *Handler) Handle(ctx context.Context, rec ConsumerRecord) error {
	ctx, span := handlerTracer.Start(ctx, "kafkaretry.handle",
		trace.WithAttributes(
			attribute.String("messaging.destination.name", rec.Topic),
			attribute.Int("messaging.kafka.partition", int(rec.Partition)),
			attribute.Int64("kafkaretry.offset", rec.Offset),
		),
	)
	defer span.End()

	retryHeaders, onRetryTopic, decodeErr := h.retryHeadersFor(rec)
	if decodeErr != nil {
		h.metrics.NoRetryOnNonRetryableFailure(TopicPartition{Topic: rec.Topic, Partition: rec.Partition}, rec.Offset, decodeErr)
		h.log.Warn("malformed retry headers, dropping record", zap.String("topic", rec.Topic), zap.Int64("offset", rec.Offset), zap.Error(decodeErr))
		return nil
	}

	if onRetryTopic {
		if err := h.awaitScheduledDelay(ctx, retryHeaders); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	// A record on the primary topic matched by a live operator override
	// is dropped without ever reaching the user handler: IgnoringOnce /
	// IgnoringAll exist precisely to let an operator drain a stuck
	// partition, not only to shorten an already-failing record's sleep.
	if !onRetryTopic {
		tp := TopicPartition{Topic: rec.Topic, Partition: rec.Partition}
		if _, skipped := checkOverride(h.store, h.metrics, tp, rec.Offset); skipped {
			return nil
		}
	}

	err := h.userHandler.Handle(ctx, rec)
	if err == nil {
		return nil
	}

	var nonRetriable NonRetriableError
	if errors.As(err, &nonRetriable) {
		tp := TopicPartition{Topic: rec.Topic, Partition: rec.Partition}
		h.metrics.NoRetryOnNonRetryableFailure(tp, rec.Offset, nonRetriable.Cause)
		h.log.Debug("non-retriable failure, not retrying", zap.String("topic", rec.Topic), zap.Int64("offset", rec.Offset), zap.Error(nonRetriable.Cause))
		return nil
	}

	attempt := int32(0)
	if onRetryTopic {
		attempt = retryHeaders.Attempt
	}

	action := Decide(rec, h.cfg, h.sub, attempt)
	switch a := action.(type) {
	case BlockingRetry:
		return h.runBlocking(ctx, rec, a.Attempt)
	case NonBlockingRepublish:
		return republish(ctx, h.producer, h.clock, rec, a.Topic, a.Attempt, a.Backoff)
	case TerminalGiveUp:
		h.log.Warn("retry schedule exhausted", zap.String("topic", rec.Topic), zap.Int64("offset", rec.Offset))
		return err
	default:
		return err
	}
}

// retryHeadersFor reports whether rec arrived on a retry topic (by name,
// matching the same IsRetryTopic check Decide makes independently) and,
// if so, decodes whatever retry headers are attached. The "on retry
// topic" verdict always tracks the topic-name match, never whether
// headers happened to decode or were present: a retry-topic record with
// no headers is still a retry hop, just one with no attempt/backoff
// information to honor.
func (h *Handler) retryHeadersFor(rec ConsumerRecord) (RetryHeaders, bool, error) {
	if _, isHop := IsRetryTopic(rec.Topic, h.sub.Topic(), h.sub.GroupID()); !isHop {
		return RetryHeaders{}, false, nil
	}
	headers, _, err := DecodeRetryHeaders(rec.Headers)
	if err != nil {
		return RetryHeaders{}, true, err
	}
	return headers, true, nil
}

// awaitScheduledDelay sleeps until submittedAt+backoff, per §4.6 step 1.
// This delay is a durable schedule, not a blocking retry: it is not
// interruptible by the control store, only by context cancellation.
func (h *Handler) awaitScheduledDelay(ctx context.Context, rh RetryHeaders) error {
	delay := rh.SubmittedAt.Add(rh.Backoff).Sub(h.clock.Now())
	if delay <= 0 {
		return nil
	}
	select {
	case <-h.clock.Sleep(ctx, delay):
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) runBlocking(ctx context.Context, rec ConsumerRecord, startAttempt int32) error {
	backoffs := backoffsFor(h.cfg)
	runner := loopRunner{store: h.store, clock: h.clock, handler: h.userHandler, metrics: h.metrics}
	outcome, err := runner.runBlockingLoop(ctx, rec, backoffs, startAttempt)
	if outcome == Released && err != nil && ctx.Err() == nil {
		if bnb, ok := h.cfg.(BlockingFollowedByNonBlocking); ok && len(bnb.NonBlocking) > 0 {
			return republish(ctx, h.producer, h.clock, rec, RetryTopicName(h.sub.Topic(), h.sub.GroupID(), 0), 0, bnb.NonBlocking[0])
		}
		return err
	}
	return err
}
