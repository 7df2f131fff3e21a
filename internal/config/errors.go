// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRegularFile is returned if a file path does not point to a
	// regular file.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrDiskNotSet is returned if a disk image URL is given without disk
	// path.
	ErrDiskNotSet = errors.New("disk image url requires instance disk")

	// ErrExternalPorts is returned if ports of an external instance are
	// missing.
	ErrExternalPorts = errors.New("external instance requires console and qmp port")

	// ErrPortCollision is returned if two configured ports are equal.
	ErrPortCollision = errors.New("port collision")
)

// EnvError is returned if an environment variable has an invalid value.
type EnvError struct {
	Name  string
	Value string
	Err   error
}

// Error implements the [error] interface.
func (e *EnvError) Error() string {
	return fmt.Sprintf("env %s=%q: %v", e.Name, e.Value, e.Err)
}

// Is implements the [errors.Is] interface.
func (*EnvError) Is(other error) bool {
	_, ok := other.(*EnvError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *EnvError) Unwrap() error {
	return e.Err
}
