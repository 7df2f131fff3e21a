// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aibor/qemudut/internal/guest"
	"github.com/aibor/qemudut/internal/poll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCheck(t *testing.T) {
	runner := &fakeRunner{results: map[string]guest.Result{
		"uci get network.lan.proto": {Output: []string{"static"}},
		"uci get network.wan":       {Output: []string{"uci: Entry not found"}, ExitCode: 1},
	}}

	output, err := guest.RunCheck(t.Context(), runner, "uci get network.lan.proto")
	require.NoError(t, err)
	assert.Equal(t, "static", output)

	_, err = guest.RunCheck(t.Context(), runner, "uci get network.wan")

	var execErr *guest.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 1, execErr.ExitCode)
	assert.Equal(t, "uci get network.wan", execErr.Command)
	assert.Equal(t, `command "uci get network.wan" exited with code 1: uci: Entry not found`, execErr.Error())
}

func TestRunCheck_RunnerError(t *testing.T) {
	expected := errors.New("connection lost")
	runner := &fakeRunner{err: expected}

	_, err := guest.RunCheck(t.Context(), runner, "true")
	require.ErrorIs(t, err, expected)
	assert.NotErrorIs(t, err, &guest.ExecutionError{})
}

type countingRunner struct {
	failures int
}

func (r *countingRunner) Run(context.Context, string) (guest.Result, error) {
	if r.failures > 0 {
		r.failures--
		return guest.Result{ExitCode: 1}, nil
	}

	return guest.Result{}, nil
}

func TestWaitForCommand(t *testing.T) {
	policy := poll.Policy{Interval: time.Millisecond, Timeout: time.Second}

	t.Run("succeeds", func(t *testing.T) {
		runner := &countingRunner{failures: 3}

		require.NoError(t, guest.WaitForCommand(t.Context(), runner, "pidof dropbear", policy))
		assert.Zero(t, runner.failures)
	})

	t.Run("times out", func(t *testing.T) {
		runner := &fakeRunner{}
		policy := poll.Policy{Interval: time.Millisecond, Timeout: 20 * time.Millisecond}

		err := guest.WaitForCommand(t.Context(), runner, "pidof dropbear", policy)
		require.ErrorIs(t, err, &poll.TimeoutError{})
	})
}
