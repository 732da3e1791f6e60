package domain

import (
	"fmt"
	"strings"
)

// RetryPolicy controls when a (video, service) pair is considered exhausted
// by the dispatch loop.
type RetryPolicy string

const (
	// RetryUntilSuccess skips a pair only once a success row exists;
	// failures are retried on every poll.
	RetryUntilSuccess RetryPolicy = "retry_until_success"
	// SingleAttempt skips a pair once any row exists; a failure is
	// permanent and never retried.
	SingleAttempt RetryPolicy = "single_attempt"
)

func (p RetryPolicy) String() string { return string(p) }

func (p RetryPolicy) IsValid() bool {
	switch p {
	case RetryUntilSuccess, SingleAttempt:
		return true
	}
	return false
}

func ParseRetryPolicyFromString(s string) (RetryPolicy, error) {
	p := RetryPolicy(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: invalid retry policy %q", ErrValidation, s)
	}
	return p, nil
}

// DueWindow controls which scheduled instants the selector considers due.
type DueWindow string

const (
	// WindowOpen selects every video with taken_at <= now, forever.
	WindowOpen DueWindow = "open"
	// WindowBounded24h selects taken_at within [now-24h, now]; videos
	// overdue by more than 24 hours are silently excluded.
	WindowBounded24h DueWindow = "bounded_24h"
)

func (w DueWindow) String() string { return string(w) }

func (w DueWindow) IsValid() bool {
	switch w {
	case WindowOpen, WindowBounded24h:
		return true
	}
	return false
}

func ParseDueWindowFromString(s string) (DueWindow, error) {
	w := DueWindow(strings.ToLower(strings.TrimSpace(s)))
	if !w.IsValid() {
		return "", fmt.Errorf("%w: invalid due window %q", ErrValidation, s)
	}
	return w, nil
}
