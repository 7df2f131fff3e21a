// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aibor/qemudut/internal/qmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGreeting   = `{"QMP": {"version": {"qemu": {"micro": 2, "minor": 1, "major": 8}, "package": ""}, "capabilities": ["oob"]}}` + "\n"
	testNegotiated = `{"return": {}}` + "\n"
)

func lines(l ...string) *strings.Reader {
	return strings.NewReader(strings.Join(l, "\n") + "\n")
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectedErr error
	}{
		{
			name:  "success",
			input: testGreeting + testNegotiated,
		},
		{
			name:        "empty stream",
			input:       "",
			expectedErr: &qmp.ProtocolError{},
		},
		{
			name:        "no greeting",
			input:       `{"return": {}}` + "\n",
			expectedErr: &qmp.ProtocolError{},
		},
		{
			name:        "negotiation failed",
			input:       testGreeting + `{"error": {"class": "CommandNotFound", "desc": "nope"}}` + "\n",
			expectedErr: &qmp.ProtocolError{},
		},
		{
			name:        "negotiation unanswered",
			input:       testGreeting,
			expectedErr: &qmp.ProtocolError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var written bytes.Buffer

			monitor, err := qmp.New(strings.NewReader(tt.input), &written)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "8.1.2", monitor.Version().String())
			assert.JSONEq(t, `{"execute":"qmp_capabilities"}`, written.String())
		})
	}
}

func TestNew_MalformedGreeting(t *testing.T) {
	_, err := qmp.New(strings.NewReader("{not json\n"), &bytes.Buffer{})

	var syntaxErr *json.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestMonitor_Execute(t *testing.T) {
	tests := []struct {
		name          string
		answers       []string
		arguments     any
		expectedSent  string
		expected      string
		expectedErr   error
	}{
		{
			name:         "nil arguments",
			answers:      []string{`{"return": {"status": "running"}}`},
			expectedSent: `{"execute":"query-status","arguments":{}}`,
			expected:     `{"status": "running"}`,
		},
		{
			name:         "with arguments",
			answers:      []string{`{"return": {}}`},
			arguments:    map[string]string{"device": "net0"},
			expectedSent: `{"execute":"query-status","arguments":{"device":"net0"}}`,
			expected:     `{}`,
		},
		{
			name: "events skipped",
			answers: []string{
				`{"event": "RESUME", "timestamp": {"seconds": 1, "microseconds": 2}}`,
				`{"event": "STOP", "timestamp": {"seconds": 1, "microseconds": 3}}`,
				`{"return": []}`,
			},
			expectedSent: `{"execute":"query-status","arguments":{}}`,
			expected:     `[]`,
		},
		{
			name:         "error answer",
			answers:      []string{`{"error": {"class": "GenericError", "desc": "broken"}}`},
			expectedSent: `{"execute":"query-status","arguments":{}}`,
			expectedErr: &qmp.CommandError{
				Class: "GenericError",
				Desc:  "broken",
			},
		},
		{
			name:         "closed before answer",
			expectedSent: `{"execute":"query-status","arguments":{}}`,
			expectedErr:  &qmp.ProtocolError{},
		},
		{
			name:         "neither return nor error",
			answers:      []string{`{"foo": "bar"}`},
			expectedSent: `{"execute":"query-status","arguments":{}}`,
			expectedErr:  &qmp.ProtocolError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var written bytes.Buffer

			input := testGreeting + testNegotiated
			for _, answer := range tt.answers {
				input += answer + "\n"
			}

			monitor, err := qmp.New(strings.NewReader(input), &written)
			require.NoError(t, err)

			written.Reset()

			result, err := monitor.Execute("query-status", tt.arguments)
			assert.JSONEq(t, tt.expectedSent, written.String())

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				var cmdErr *qmp.CommandError
				if expected, ok := tt.expectedErr.(*qmp.CommandError); ok {
					require.ErrorAs(t, err, &cmdErr)
					assert.Equal(t, expected, cmdErr)
				}

				return
			}

			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(result))
		})
	}
}

func TestMonitor_HumanMonitorCommand(t *testing.T) {
	var written bytes.Buffer

	input := lines(
		strings.TrimSpace(testGreeting),
		strings.TrimSpace(testNegotiated),
		`{"return": "Hub -1 (net0):\r\n  Protocol[State]    FD  Source Address  Port   Dest. Address  Port RecvQ SendQ\r\n"}`,
	)

	monitor, err := qmp.New(input, &written)
	require.NoError(t, err)

	written.Reset()

	output, err := monitor.HumanMonitorCommand("info usernet")
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"execute":"human-monitor-command","arguments":{"command-line":"info usernet"}}`,
		written.String(),
	)
	assert.True(t, strings.HasPrefix(output, "Hub -1 (net0):\r\n"))
}

func TestDecodeOutput(t *testing.T) {
	output, err := qmp.DecodeOutput(json.RawMessage(`"some text"`))
	require.NoError(t, err)
	assert.Equal(t, "some text", output)

	_, err = qmp.DecodeOutput(json.RawMessage(`{}`))
	require.Error(t, err)
}

func TestError_Is(t *testing.T) {
	//nolint:testifylint
	assert.ErrorIs(t, error(&qmp.CommandError{Class: "a"}), &qmp.CommandError{})
	assert.NotErrorIs(t, error(&qmp.CommandError{}), &qmp.ProtocolError{})
	assert.NotErrorIs(t, assert.AnError, &qmp.ProtocolError{})
}
