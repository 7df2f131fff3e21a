// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"errors"
	"fmt"
)

var (
	// ErrProcessExited is returned if a child process exited while it was
	// expected to be running.
	ErrProcessExited = errors.New("process exited")

	// ErrClosed is returned if a closed [Supervisor] is used.
	ErrClosed = errors.New("supervisor closed")

	// ErrPortCollision is returned if the console port equals a port of the
	// emulator.
	ErrPortCollision = errors.New("port collision")
)

// PortInUseError is returned if a port required by the instance is already
// bound by another process.
type PortInUseError struct {
	Port    uint16
	PID     int32
	Process string
}

// Error implements the [error] interface.
func (e *PortInUseError) Error() string {
	msg := fmt.Sprintf("port %d in use", e.Port)
	if e.PID != 0 {
		msg += fmt.Sprintf(" by %s (pid %d)", e.Process, e.PID)
	}

	return msg
}

// Is implements the [errors.Is] interface.
func (*PortInUseError) Is(other error) bool {
	_, ok := other.(*PortInUseError)
	return ok
}
