// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest_test

import (
	"net"
	"testing"
	"time"

	"github.com/aibor/qemudut/internal/guest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shellCommands = map[string]guest.Result{
	"uname": {Output: []string{"Linux"}},
	"false": {Output: []string{}, ExitCode: 1},
	"cat /etc/banner": {Output: []string{
		"OpenWrt",
		"",
		"ready",
	}},
}

func TestConsole_Run(t *testing.T) {
	tests := []struct {
		name     string
		shell    fakeShell
		cfg      guest.ConsoleConfig
		command  string
		expected guest.Result
	}{
		{
			name:     "without login",
			shell:    fakeShell{commands: shellCommands},
			command:  "uname",
			expected: guest.Result{Output: []string{"Linux"}},
		},
		{
			name:     "with login",
			shell:    fakeShell{username: "root", commands: shellCommands},
			command:  "uname",
			expected: guest.Result{Output: []string{"Linux"}},
		},
		{
			name:     "with password",
			shell:    fakeShell{username: "admin", password: "secret", commands: shellCommands},
			cfg:      guest.ConsoleConfig{Username: "admin", Password: "secret"},
			command:  "uname",
			expected: guest.Result{Output: []string{"Linux"}},
		},
		{
			name:     "exit code",
			shell:    fakeShell{commands: shellCommands},
			command:  "false",
			expected: guest.Result{Output: []string{}, ExitCode: 1},
		},
		{
			name:    "multi line",
			shell:   fakeShell{commands: shellCommands},
			command: "cat /etc/banner",
			expected: guest.Result{Output: []string{
				"OpenWrt",
				"",
				"ready",
			}},
		},
		{
			name:    "not found",
			shell:   fakeShell{commands: shellCommands},
			command: "opkg",
			expected: guest.Result{
				Output:   []string{"/bin/ash: opkg: not found"},
				ExitCode: 127,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			address := startFakeShell(t, tt.shell)

			console, err := guest.NewConsole(address, tt.cfg)
			require.NoError(t, err)

			require.NoError(t, console.Activate(t.Context()))

			t.Cleanup(func() {
				assert.NoError(t, console.Deactivate())
			})

			result, err := console.Run(t.Context(), tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)

			// The console is usable after each command.
			result, err = console.Run(t.Context(), "uname")
			require.NoError(t, err)
			assert.Equal(t, []string{"Linux"}, result.Output)
		})
	}
}

func TestConsole_Activate(t *testing.T) {
	address := startFakeShell(t, fakeShell{commands: shellCommands})

	console, err := guest.NewConsole(address, guest.ConsoleConfig{})
	require.NoError(t, err)

	assert.False(t, console.Active())

	_, err = console.Run(t.Context(), "uname")
	require.ErrorIs(t, err, guest.ErrNotActive)

	require.NoError(t, console.Activate(t.Context()))
	require.NoError(t, console.Activate(t.Context()))
	assert.True(t, console.Active())

	require.NoError(t, console.Deactivate())
	require.NoError(t, console.Deactivate())
	assert.False(t, console.Active())
}

func TestConsole_LoginFailed(t *testing.T) {
	address := startFakeShell(t, fakeShell{username: "admin", commands: shellCommands})

	console, err := guest.NewConsole(address, guest.ConsoleConfig{
		Username: "root",
		Timeout:  200 * time.Millisecond,
	})
	require.NoError(t, err)

	err = console.Activate(t.Context())
	require.ErrorIs(t, err, guest.ErrConsoleTimeout)
	assert.False(t, console.Active())
}

func TestConsole_Timeout(t *testing.T) {
	address := startFakeShell(t, fakeShell{commands: shellCommands, hang: "sleep 100"})

	console, err := guest.NewConsole(address, guest.ConsoleConfig{
		Timeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	require.NoError(t, console.Activate(t.Context()))

	t.Cleanup(func() {
		assert.NoError(t, console.Deactivate())
	})

	_, err = console.Run(t.Context(), "sleep 100")
	require.ErrorIs(t, err, guest.ErrConsoleTimeout)
}

func TestConsole_Refused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	console, err := guest.NewConsole(address, guest.ConsoleConfig{})
	require.NoError(t, err)

	err = console.Activate(t.Context())
	require.Error(t, err)
	assert.False(t, console.Active())
}

func TestNewConsole_InvalidPrompt(t *testing.T) {
	_, err := guest.NewConsole("localhost:12345", guest.ConsoleConfig{Prompt: "("})
	require.Error(t, err)
}
