// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import "errors"

var (
	// ErrArgumentCollision is returned if two [Argument]s are considered equal.
	ErrArgumentCollision = errors.New("colliding args")

	// ErrDisplayModeInvalid is returned if a display mode is invalid.
	ErrDisplayModeInvalid = errors.New("unknown display mode")

	// ErrVersionNotFound is returned if the version of the emulator can not be
	// determined.
	ErrVersionNotFound = errors.New("qemu version not found")
)

// ArgumentError indicates an issue with an input argument.
type ArgumentError struct {
	msg string
}

// Error implements the [error] interface.
func (e *ArgumentError) Error() string {
	return "argument error: " + e.msg
}

// Is implements the [errors.Is] interface.
func (*ArgumentError) Is(other error) bool {
	_, ok := other.(*ArgumentError)
	return ok
}

// UnsupportedMachineError is returned if a disk image is requested for a
// machine type without known disk wiring.
type UnsupportedMachineError struct {
	Machine string
}

// Error implements the [error] interface.
func (e *UnsupportedMachineError) Error() string {
	return "disk image not supported for machine " + e.Machine
}

// Is implements the [errors.Is] interface.
func (*UnsupportedMachineError) Is(other error) bool {
	_, ok := other.(*UnsupportedMachineError)
	return ok
}
