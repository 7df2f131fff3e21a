// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import "errors"

// ErrTimeout is returned if the monitor did not answer in time.
var ErrTimeout = errors.New("monitor read timed out")

// ProtocolError is returned if the server violates the protocol, like a
// missing greeting, a failed negotiation or a closed stream.
type ProtocolError struct {
	msg string
}

// Error implements the [error] interface.
func (e *ProtocolError) Error() string {
	return "qmp protocol error: " + e.msg
}

// Is implements the [errors.Is] interface.
func (*ProtocolError) Is(other error) bool {
	_, ok := other.(*ProtocolError)
	return ok
}

// CommandError is returned if the server answered a command with an error
// object.
type CommandError struct {
	Class string
	Desc  string
}

// Error implements the [error] interface.
func (e *CommandError) Error() string {
	return "qmp command failed: " + e.Class + ": " + e.Desc
}

// Is implements the [errors.Is] interface.
func (*CommandError) Is(other error) bool {
	_, ok := other.(*CommandError)
	return ok
}
