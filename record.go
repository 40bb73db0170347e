package kafkaretry

// Header is a single record header, key ordered as they appeared on the
// wire.
type Header struct {
	Key   string
	Value []byte
}

// HeaderValue returns the value of the first header matching name, or nil with
// ok=false if none is present.
func HeaderValue(headers []Header, name string) (value []byte, ok bool) {
	for _, h := range headers {
		if h.Key == name {
			return h.Value, true
		}
	}
	return nil, false
}

// WithHeader returns a copy of headers with any existing header named name
// removed and (name, value) appended, preserving the relative order of the
// remaining headers.
func WithHeader(headers []Header, name string, value []byte) []Header {
	out := make([]Header, 0, len(headers)+1)
	for _, h := range headers {
		if h.Key == name {
			continue
		}
		out = append(out, h)
	}
	return append(out, Header{Key: name, Value: value})
}

// ConsumerRecord is the core's view of an inbound or outbound Kafka record.
// It is treated as immutable; nothing in this module mutates a Header
// slice or byte slice passed to it in place.
type ConsumerRecord struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   []Header
}

// TopicPartition identifies the partition a record belongs to, used as the
// scope of blocking-retry bookkeeping.
type TopicPartition struct {
	Topic     string
	Partition int32
}
