// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package strategy

import "errors"

// ErrStatusInvalid is returned if a status name is not known.
var ErrStatusInvalid = errors.New("unknown status")

// StrategyError is returned if a transition to the given status is not
// possible.
type StrategyError struct {
	Status Status
}

// Error implements the [error] interface.
func (e *StrategyError) Error() string {
	return "can not transition to " + e.Status.String()
}

// Is implements the [errors.Is] interface.
func (*StrategyError) Is(other error) bool {
	_, ok := other.(*StrategyError)
	return ok
}

// SetupError is returned if a service on the guest could not be set up.
type SetupError struct {
	Msg string
	Err error
}

// Error implements the [error] interface.
func (e *SetupError) Error() string {
	if e.Err == nil {
		return "setup: " + e.Msg
	}

	return "setup: " + e.Msg + ": " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (*SetupError) Is(other error) bool {
	_, ok := other.(*SetupError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *SetupError) Unwrap() error {
	return e.Err
}
