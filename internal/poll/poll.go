// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package poll

import (
	"context"
	"errors"
	"time"
)

// Default intervals and timeouts.
const (
	DefaultWaitInterval  = 100 * time.Millisecond
	DefaultWaitTimeout   = 10 * time.Second
	DefaultRetryInterval = time.Second
	DefaultRetryTimeout  = 10 * time.Second
)

// Policy defines the interval between attempts and the overall time budget.
type Policy struct {
	Interval time.Duration
	Timeout  time.Duration
}

var errNotYet = errors.New("condition not met")

// WaitPolicy is the default policy for [WaitFor].
var WaitPolicy = Policy{
	Interval: DefaultWaitInterval,
	Timeout:  DefaultWaitTimeout,
}

// RetryPolicy is the default policy for [Retry].
var RetryPolicy = Policy{
	Interval: DefaultRetryInterval,
	Timeout:  DefaultRetryTimeout,
}

// WaitFor calls cond until it returns true or the timeout of the policy is
// exhausted.
//
// It returns a [TimeoutError] with the given description if the condition
// does not become true in time. If the context is cancelled, the context
// error is returned.
func WaitFor(
	ctx context.Context,
	desc string,
	policy Policy,
	cond func() bool,
) error {
	_, err := Retry(ctx, desc, policy, func() (struct{}, error) {
		if cond() {
			return struct{}{}, nil
		}

		return struct{}{}, errNotYet
	}, nil)

	// The internal marker is not a helpful cause.
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) && errors.Is(timeoutErr.Cause, errNotYet) {
		timeoutErr.Cause = nil
	}

	return err
}

// Retry calls fn until it succeeds or the timeout of the policy is exhausted.
//
// Only errors for which retryable returns true are retried. All other errors
// are returned immediately. A nil retryable retries all errors. On timeout, a
// [TimeoutError] is returned with the last error as cause.
func Retry[T any](
	ctx context.Context,
	desc string,
	policy Policy,
	fn func() (T, error),
	retryable func(error) bool,
) (T, error) {
	var zero T

	deadline := time.Now().Add(policy.Timeout)

	var lastErr error

	for {
		value, err := fn()
		if err == nil {
			return value, nil
		}

		if retryable != nil && !retryable(err) {
			return zero, err
		}

		lastErr = err

		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(min(policy.Interval, remaining)):
		}
	}

	return zero, &TimeoutError{
		Desc:    desc,
		Timeout: policy.Timeout,
		Cause:   lastErr,
	}
}
