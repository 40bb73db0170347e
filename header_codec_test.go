package kafkaretry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeRetryHeaders_AbsentIsNotPresent(t *testing.T) {
	h, present, err := DecodeRetryHeaders([]Header{{Key: "x", Value: []byte("y")}})
	require.NoError(t, err)
	require.False(t, present)
	require.Equal(t, RetryHeaders{}, h)
}

func TestDecodeRetryHeaders_RoundTrip(t *testing.T) {
	submitted := time.UnixMilli(1_700_000_000_123).UTC()
	backoff := 2500 * time.Millisecond

	headers := EncodeRetryHeaders(3, submitted, backoff)
	got, present, err := DecodeRetryHeaders(headers)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, int32(3), got.Attempt)
	require.True(t, submitted.Equal(got.SubmittedAt))
	require.Equal(t, backoff, got.Backoff)
}

func TestDecodeRetryHeaders_PartialIsError(t *testing.T) {
	full := EncodeRetryHeaders(1, time.Now(), time.Second)
	partial := full[:2] // drop retry-backoff
	_, present, err := DecodeRetryHeaders(partial)
	require.Error(t, err)
	require.False(t, present)
}

func TestDecodeRetryHeaders_MalformedLengthIsError(t *testing.T) {
	full := EncodeRetryHeaders(1, time.Now(), time.Second)
	corrupt := make([]Header, len(full))
	copy(corrupt, full)
	for i, h := range corrupt {
		if h.Key == HeaderRetryAttempt {
			corrupt[i] = Header{Key: h.Key, Value: h.Value[:2]}
		}
	}
	_, _, err := DecodeRetryHeaders(corrupt)
	require.Error(t, err)
}

func TestApplyRetryHeaders_OverwritesExisting(t *testing.T) {
	existing := []Header{{Key: HeaderRetryAttempt, Value: []byte("stale")}, {Key: "other", Value: []byte("keep")}}
	out := ApplyRetryHeaders(existing, 5, time.Now(), time.Second)

	v, ok := HeaderValue(out, "other")
	require.True(t, ok)
	require.Equal(t, []byte("keep"), v)

	h, present, err := DecodeRetryHeaders(out)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, int32(5), h.Attempt)
}

func TestWithHeader_ReplacesExistingValue(t *testing.T) {
	headers := []Header{{Key: "a", Value: []byte("1")}, {Key: "b", Value: []byte("2")}}
	out := WithHeader(headers, "a", []byte("3"))
	require.Len(t, out, 2)
	v, ok := HeaderValue(out, "a")
	require.True(t, ok)
	require.Equal(t, []byte("3"), v)
}
