package model

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// HTTPError is a non-200 response from a careers site, an LLM API or a
// webhook. Retry logic classifies it by status code.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Transient reports whether the request may succeed if repeated: 429 and
// any 5xx.
func (e *HTTPError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// NewHTTPError builds an HTTPError from resp, reading Retry-After.
func NewHTTPError(resp *http.Response, err error) *HTTPError {
	return &HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
		Err:        err,
	}
}

// ParseRetryAfter parses a Retry-After header in seconds form. It returns
// zero when the value is absent or not a positive integer.
func ParseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
