// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/aibor/qemudut/internal/qemu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayMode_UnmarshalText(t *testing.T) {
	tests := []struct {
		input       string
		expected    qemu.DisplayMode
		expectedErr error
	}{
		{input: "none", expected: qemu.DisplayModeNone},
		{input: "fb-headless", expected: qemu.DisplayModeFramebufferHeadless},
		{input: "egl-headless", expected: qemu.DisplayModeEGLHeadless},
		{input: "vnc", expectedErr: qemu.ErrDisplayModeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var mode qemu.DisplayMode

			err := mode.UnmarshalText([]byte(tt.input))
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestDisplayMode_MarshalText(t *testing.T) {
	text, err := qemu.DisplayModeEGLHeadless.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, []byte("egl-headless"), text)

	_, err = qemu.DisplayMode("vnc").MarshalText()
	require.ErrorIs(t, err, qemu.ErrDisplayModeInvalid)
}
