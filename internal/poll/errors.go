// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package poll

import (
	"fmt"
	"time"
)

// TimeoutError is returned if a polling loop ran out of time.
//
// If the loop retried around a failing function, Cause is the last failure
// observed.
type TimeoutError struct {
	Desc    string
	Timeout time.Duration
	Cause   error
}

// Error implements the [error] interface.
func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timeout after %s waiting for %s", e.Timeout, e.Desc)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Is implements the [errors.Is] interface.
func (*TimeoutError) Is(other error) bool {
	_, ok := other.(*TimeoutError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}
