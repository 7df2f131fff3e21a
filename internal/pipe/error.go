// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe

import "fmt"

// Error wraps any error occurring during pipe processing.
type Error struct {
	Name string
	Err  error
}

// Error implements the [error] interface.
func (e *Error) Error() string {
	return fmt.Sprintf("pipe %s: %v", e.Name, e.Err.Error())
}

// Is implements the [errors.Is] interface.
func (*Error) Is(other error) bool {
	_, ok := other.(*Error)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *Error) Unwrap() error {
	return e.Err
}
