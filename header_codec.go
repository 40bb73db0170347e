package kafkaretry

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Wire header names, exact strings per the retry topic contract.
const (
	HeaderRetryAttempt     = "retry-attempt"
	HeaderRetrySubmittedAt = "retry-submitted-at"
	HeaderRetryBackoff     = "retry-backoff"
)

// RetryHeaders is the decoded form of the three retry headers.
type RetryHeaders struct {
	Attempt     int32
	SubmittedAt time.Time
	Backoff     time.Duration
}

// EncodeRetryHeaders returns the retry-attempt, retry-submitted-at and
// retry-backoff headers for attempt, submittedAt and backoff.
//
// retry-submitted-at is encoded as milliseconds since the Unix epoch in a
// big-endian int64, the same binary shape as retry-attempt and
// retry-backoff, so a single fixed-width decode path handles all three.
func EncodeRetryHeaders(attempt int32, submittedAt time.Time, backoff time.Duration) []Header {
	var attemptBuf [4]byte
	binary.BigEndian.PutUint32(attemptBuf[:], uint32(attempt))

	var submittedBuf [8]byte
	binary.BigEndian.PutUint64(submittedBuf[:], uint64(submittedAt.UnixMilli()))

	var backoffBuf [8]byte
	binary.BigEndian.PutUint64(backoffBuf[:], uint64(backoff.Milliseconds()))

	return []Header{
		{Key: HeaderRetryAttempt, Value: attemptBuf[:]},
		{Key: HeaderRetrySubmittedAt, Value: submittedBuf[:]},
		{Key: HeaderRetryBackoff, Value: backoffBuf[:]},
	}
}

// ApplyRetryHeaders returns headers with the three retry headers added,
// overwriting any pre-existing values with these names, per §4.5.
func ApplyRetryHeaders(headers []Header, attempt int32, submittedAt time.Time, backoff time.Duration) []Header {
	out := headers
	for _, h := range EncodeRetryHeaders(attempt, submittedAt, backoff) {
		out = WithHeader(out, h.Key, h.Value)
	}
	return out
}

// DecodeRetryHeaders decodes the three retry headers. present is false and
// err is nil when none of the three headers are set: that shape means
// "not a retry record" per §4.1. A partially-present or malformed set of
// headers is a decode failure; Handle treats it like a non-retriable
// failure (NoRetryOnNonRetryableFailure is reported, the record is
// consumed).
func DecodeRetryHeaders(headers []Header) (h RetryHeaders, present bool, err error) {
	attemptRaw, hasAttempt := HeaderValue(headers, HeaderRetryAttempt)
	submittedRaw, hasSubmitted := HeaderValue(headers, HeaderRetrySubmittedAt)
	backoffRaw, hasBackoff := HeaderValue(headers, HeaderRetryBackoff)

	if !hasAttempt && !hasSubmitted && !hasBackoff {
		return RetryHeaders{}, false, nil
	}
	if !hasAttempt || !hasSubmitted || !hasBackoff {
		return RetryHeaders{}, false, fmt.Errorf("kafkaretry: incomplete retry headers: attempt=%v submitted=%v backoff=%v", hasAttempt, hasSubmitted, hasBackoff)
	}
	if len(attemptRaw) != 4 {
		return RetryHeaders{}, false, fmt.Errorf("kafkaretry: malformed %s header: want 4 bytes, got %d", HeaderRetryAttempt, len(attemptRaw))
	}
	if len(submittedRaw) != 8 {
		return RetryHeaders{}, false, fmt.Errorf("kafkaretry: malformed %s header: want 8 bytes, got %d", HeaderRetrySubmittedAt, len(submittedRaw))
	}
	if len(backoffRaw) != 8 {
		return RetryHeaders{}, false, fmt.Errorf("kafkaretry: malformed %s header: want 8 bytes, got %d", HeaderRetryBackoff, len(backoffRaw))
	}

	attempt := int32(binary.BigEndian.Uint32(attemptRaw))
	submittedMillis := int64(binary.BigEndian.Uint64(submittedRaw))
	backoffMillis := int64(binary.BigEndian.Uint64(backoffRaw))

	return RetryHeaders{
		Attempt:     attempt,
		SubmittedAt: time.UnixMilli(submittedMillis).UTC(),
		Backoff:     time.Duration(backoffMillis) * time.Millisecond,
	}, true, nil
}
