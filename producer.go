package kafkaretry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var republishTracer = otel.Tracer("kafkaretry.producer")

// republish publishes rec to topic with the retry headers for attempt and
// backoff merged over its existing headers (overwriting any pre-existing
// retry-* headers), per §4.5. Producer failures are returned as-is; the
// top-level handler treats any publish failure as retriable, per §7.
func republish(ctx context.Context, producer Producer, clock Clock, rec ConsumerRecord, topic string, attempt int32, backoff time.Duration) error {
	ctx, span := republishTracer.Start(ctx, "kafkaretry.republish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", topic),
			attribute.Int("kafkaretry.attempt", int(attempt)),
		),
	)
	defer span.End()

	headers := ApplyRetryHeaders(rec.Headers, attempt, clock.Now(), backoff)

	if err := producer.Produce(ctx, topic, rec.Key, rec.Value, headers); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
