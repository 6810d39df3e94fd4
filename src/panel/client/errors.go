package client

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrPeriodEnded      = errors.New("voting period has ended")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrTargetNotFound   = errors.New("delegate target not found")
)

// RateLimitedError reports a cooldown-window violation together with the
// server-suggested wait.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

// ActionNotAllowedError covers policy rejections: invalid option, self or
// cyclic delegation, and similar.
type ActionNotAllowedError struct {
	Reason string
}

func (e *ActionNotAllowedError) Error() string {
	return "action not allowed: " + e.Reason
}

// NetworkError wraps transport-level failures so callers can distinguish
// them from server verdicts.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network failure: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }
