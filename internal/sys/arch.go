// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"errors"
	"runtime"
)

// Arch is a guest architecture.
type Arch string

// Supported guest architectures.
const (
	AMD64   Arch = "amd64"
	ARM64   Arch = "arm64"
	ARM     Arch = "arm"
	RISCV64 Arch = "riscv64"
)

// Native is the architecture of the host.
const Native Arch = Arch(runtime.GOARCH)

var ErrArchNotSupported = errors.New("architecture not supported")

// String implements [fmt.Stringer].
func (a *Arch) String() string {
	return string(*a)
}

// IsNative returns true if the architecture is the one of the host.
func (a *Arch) IsNative() bool {
	return Native == *a
}

// Set implements [pflag.Value].
func (a *Arch) Set(s string) error {
	switch Arch(s) {
	case AMD64, ARM64, ARM, RISCV64:
		*a = Arch(s)
	default:
		return ErrArchNotSupported
	}

	return nil
}

// Type implements [pflag.Value].
func (*Arch) Type() string {
	return "arch"
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (a *Arch) UnmarshalText(text []byte) error {
	return a.Set(string(text))
}
