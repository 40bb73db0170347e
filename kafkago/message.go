// Package kafkago adapts github.com/segmentio/kafka-go to the interfaces
// the kafkaretry core depends on: ConsumerRecord, Producer, and a
// fetch-invoke-commit consume loop built the same way as this codebase's
// internal/repository/kafka.Consumer.
package kafkago

import (
	"github.com/NordCoder/kafkaretry"
	"github.com/segmentio/kafka-go"
)

// ToRecord converts a kafka-go message into a kafkaretry.ConsumerRecord.
func ToRecord(msg kafka.Message) kafkaretry.ConsumerRecord {
	headers := make([]kafkaretry.Header, len(msg.Headers))
	for i, h := range msg.Headers {
		headers[i] = kafkaretry.Header{Key: h.Key, Value: h.Value}
	}
	return kafkaretry.ConsumerRecord{
		Topic:     msg.Topic,
		Partition: int32(msg.Partition),
		Offset:    msg.Offset,
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
	}
}

func toKafkaHeaders(headers []kafkaretry.Header) []kafka.Header {
	out := make([]kafka.Header, len(headers))
	for i, h := range headers {
		out[i] = kafka.Header{Key: h.Key, Value: h.Value}
	}
	return out
}
