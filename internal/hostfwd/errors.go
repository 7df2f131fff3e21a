// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostfwd

import "errors"

// ErrForwardNotFound is returned if a forwarding to remove is not known.
var ErrForwardNotFound = errors.New("port forwarding not found")

// RuleError is returned if the emulator rejected a forwarding command. QEMU
// answers successful hostfwd commands with empty output, so any output is
// the error message.
type RuleError struct {
	Command string
	Output  string
}

// Error implements the [error] interface.
func (e *RuleError) Error() string {
	return e.Command + ": " + e.Output
}

// Is implements the [errors.Is] interface.
func (*RuleError) Is(other error) bool {
	_, ok := other.(*RuleError)
	return ok
}
