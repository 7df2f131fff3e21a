// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"slices"

	"github.com/Masterminds/semver/v3"
)

const (
	// DisplayModeNone disables graphical output and multiplexes the serial
	// console on stdio.
	DisplayModeNone DisplayMode = "none"
	// DisplayModeFramebufferHeadless creates a framebuffer device without
	// showing it.
	DisplayModeFramebufferHeadless DisplayMode = "fb-headless"
	// DisplayModeEGLHeadless creates a GPU backed graphics card. Requires
	// host support.
	DisplayModeEGLHeadless DisplayMode = "egl-headless"
)

// virtioVGAGLVersion is the first QEMU version that ships the virtio-vga-gl
// device.
var virtioVGAGLVersion = semver.New(6, 1, 0, "", "")

// DisplayMode represents the display output of the guest.
type DisplayMode string

func (d *DisplayMode) isKnown() bool {
	knownDisplayModes := []DisplayMode{
		DisplayModeNone,
		DisplayModeFramebufferHeadless,
		DisplayModeEGLHeadless,
	}

	return slices.Contains(knownDisplayModes, *d)
}

// String implements [fmt.Stringer].
func (d *DisplayMode) String() string {
	if !d.isKnown() {
		return ""
	}

	return string(*d)
}

// MarshalText implements [encoding.TextMarshaler].
func (d DisplayMode) MarshalText() ([]byte, error) {
	s := d.String()
	if s == "" {
		return nil, ErrDisplayModeInvalid
	}

	return []byte(s), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *DisplayMode) UnmarshalText(text []byte) error {
	dm := DisplayMode(text)

	if !dm.isKnown() {
		return ErrDisplayModeInvalid
	}

	*d = dm

	return nil
}

func (d *DisplayMode) arguments(version *semver.Version) []Argument {
	switch *d {
	case DisplayModeFramebufferHeadless:
		return []Argument{UniqueArg("display", "none")}
	case DisplayModeEGLHeadless:
		vga := UniqueArg("vga", "virtio")
		if version != nil && !version.LessThan(virtioVGAGLVersion) {
			vga = RepeatableArg("device", "virtio-vga-gl")
		}

		return []Argument{vga, UniqueArg("display", "egl-headless")}
	default:
		return []Argument{UniqueArg("nographic")}
	}
}
