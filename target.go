package kafkaretry

import "strconv"

// Target is the scope of an operator override: either an entire topic or
// a single topic-partition. It is a valid map key, so the zero value
// distinguishes the two shapes via hasPartition rather than a pointer.
type Target struct {
	topic        string
	partition    int32
	hasPartition bool
}

// TopicTarget scopes an override to every partition of topic.
func TopicTarget(topic string) Target {
	return Target{topic: topic}
}

// TopicPartitionTarget scopes an override to a single partition.
func TopicPartitionTarget(topic string, partition int32) Target {
	return Target{topic: topic, partition: partition, hasPartition: true}
}

func topicPartitionTargetFrom(tp TopicPartition) Target {
	return TopicPartitionTarget(tp.Topic, tp.Partition)
}

func (t Target) Topic() string { return t.topic }

// Partition returns the partition and true if t is a TopicPartitionTarget.
func (t Target) Partition() (int32, bool) { return t.partition, t.hasPartition }

func (t Target) String() string {
	if t.hasPartition {
		return t.topic + "[" + strconv.Itoa(int(t.partition)) + "]"
	}
	return t.topic
}
