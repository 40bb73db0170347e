package kafkaretry

import "fmt"

// RetriableError marks a handler failure as transient: the record is
// subject to the configured RetryConfig.
type RetriableError struct {
	Cause error
}

func (e RetriableError) Error() string {
	if e.Cause == nil {
		return "retriable error"
	}
	return fmt.Sprintf("retriable error: %v", e.Cause)
}

func (e RetriableError) Unwrap() error { return e.Cause }

// NonRetriableError marks a handler failure as permanent: the record is
// consumed and never retried.
type NonRetriableError struct {
	Cause error
}

func (e NonRetriableError) Error() string {
	if e.Cause == nil {
		return "non-retriable error"
	}
	return fmt.Sprintf("non-retriable error: %v", e.Cause)
}

func (e NonRetriableError) Unwrap() error { return e.Cause }
