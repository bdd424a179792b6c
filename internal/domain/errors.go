package domain

import (
	"errors"
	"fmt"
)

// ErrFetchFailure matches every FetchError via errors.Is
var ErrFetchFailure = errors.New("fetch failure")

// Failure reasons reported by fetchers
const (
	ReasonNetwork     = "network"
	ReasonRateLimited = "rate_limited"
	ReasonStatus      = "status"
	ReasonMalformed   = "malformed"
	ReasonCanceled    = "canceled"
)

// FetchError is the single failure kind a page fetch can produce.
// It is transient: the same request may be retried.
type FetchError struct {
	Request PageRequest
	Reason  string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("fetch page %d for %q (%s): %s", e.Request.Page, e.Request.Query.Text, e.Request.Language.Code(), e.Reason)
	}
	return fmt.Sprintf("fetch page %d for %q (%s): %s: %v", e.Request.Page, e.Request.Query.Text, e.Request.Language.Code(), e.Reason, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailure
}

// NewFetchError wraps cause as a FetchError for req. An existing FetchError is returned as is.
func NewFetchError(req PageRequest, reason string, cause error) *FetchError {
	var fe *FetchError
	if errors.As(cause, &fe) {
		return fe
	}
	return &FetchError{Request: req, Reason: reason, Cause: cause}
}
