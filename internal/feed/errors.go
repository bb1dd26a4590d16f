package feed

import (
	"fmt"
)

// ApiError is returned once the retry budget of an upstream call is spent.
type ApiError struct {
	Source     string
	Op         string
	Attempts   int
	StatusCode int
	Err        error
}

func (e *ApiError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed after %d attempt(s), status code %d: %v", e.Source, e.Op, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed after %d attempt(s): %v", e.Source, e.Op, e.Attempts, e.Err)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// StatusError carries a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
