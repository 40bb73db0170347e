// Package kafkaretry implements the retry dispatcher core of a Kafka
// consumer library: a wrapper around a user-supplied record handler that,
// on failure, either retries the record in place on the consuming
// partition or republishes it to a scheduled retry topic.
//
// The package is transport-agnostic: it knows nothing about any particular
// Kafka client. Adapters for github.com/segmentio/kafka-go live in the
// sibling kafkago package.
package kafkaretry
