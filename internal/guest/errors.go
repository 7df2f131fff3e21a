// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotActive is returned if a command is run on a driver that is not
	// activated.
	ErrNotActive = errors.New("driver not active")

	// ErrConsoleTimeout is returned if the expected console output does not
	// show up in time.
	ErrConsoleTimeout = errors.New("console timeout")

	// ErrNoDefaultRoute is returned if the guest has no IPv4 default route.
	ErrNoDefaultRoute = errors.New("no default route")

	// ErrNoAddress is returned if an interface has no IPv4 address.
	ErrNoAddress = errors.New("no address")
)

// ExecutionError is returned if a command exits with non-zero exit code.
type ExecutionError struct {
	Command  string
	ExitCode int
	Output   []string
}

// Error implements the [error] interface.
func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
	if len(e.Output) > 0 {
		msg += ": " + strings.Join(e.Output, "\n")
	}

	return msg
}

// Is implements the [errors.Is] interface.
func (*ExecutionError) Is(other error) bool {
	_, ok := other.(*ExecutionError)
	return ok
}
