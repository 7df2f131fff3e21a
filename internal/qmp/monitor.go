// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Masterminds/semver/v3"
)

const (
	capabilitiesCommand = "qmp_capabilities"
	humanMonitorCommand = "human-monitor-command"
)

// Monitor is a negotiated QMP session on a bidirectional stream.
//
// It is not safe for concurrent use. Commands are not pipelined: each
// [Monitor.Execute] call waits for its answer before returning.
type Monitor struct {
	reader  *bufio.Reader
	writer  io.Writer
	version *semver.Version
}

// New reads the server greeting from r and negotiates capabilities by writing
// to w.
func New(r io.Reader, w io.Writer) (*Monitor, error) {
	monitor := &Monitor{
		reader: bufio.NewReader(r),
		writer: w,
	}

	msg, err := monitor.read()
	if err != nil {
		return nil, fmt.Errorf("read greeting: %w", err)
	}

	if msg.QMP == nil {
		return nil, &ProtocolError{"greeting has no QMP key"}
	}

	var greet greeting
	if err := json.Unmarshal(msg.QMP, &greet); err != nil {
		return nil, fmt.Errorf("decode greeting: %w", err)
	}

	v := greet.Version.QEMU
	monitor.version = semver.New(v.Major, v.Minor, v.Micro, "", "")

	if err := monitor.write(request{Execute: capabilitiesCommand}); err != nil {
		return nil, err
	}

	msg, err = monitor.read()
	if err != nil {
		return nil, fmt.Errorf("read negotiation: %w", err)
	}

	if msg.Return == nil {
		return nil, &ProtocolError{"capabilities negotiation failed"}
	}

	return monitor, nil
}

// Version returns the emulator version announced in the greeting.
func (m *Monitor) Version() *semver.Version {
	return m.version
}

// Execute runs the command with the given arguments and returns the raw
// return payload.
//
// Nil arguments are sent as empty object. An error answer is returned as
// [CommandError].
func (m *Monitor) Execute(command string, arguments any) (json.RawMessage, error) {
	if arguments == nil {
		arguments = struct{}{}
	}

	err := m.write(request{Execute: command, Arguments: arguments})
	if err != nil {
		return nil, err
	}

	for {
		msg, err := m.read()
		if err != nil {
			return nil, err
		}

		switch {
		case msg.Event != nil:
			slog.Debug("Skip QMP event", slog.String("event", string(msg.Event)))
			continue
		case msg.Error != nil:
			return nil, &CommandError{
				Class: msg.Error.Class,
				Desc:  msg.Error.Desc,
			}
		case msg.Return != nil:
			return msg.Return, nil
		default:
			return nil, &ProtocolError{"answer has neither return nor error"}
		}
	}
}

// HumanMonitorCommand runs the given command line on the human monitor and
// returns its output.
func (m *Monitor) HumanMonitorCommand(cmdline string) (string, error) {
	raw, err := m.Execute(humanMonitorCommand, humanMonitorArgs{cmdline})
	if err != nil {
		return "", err
	}

	return DecodeOutput(raw)
}

// HumanMonitorArguments returns the arguments for a human-monitor-command
// running the given command line.
func HumanMonitorArguments(cmdline string) any {
	return humanMonitorArgs{cmdline}
}

// DecodeOutput decodes the string payload of a human-monitor-command answer.
func DecodeOutput(raw json.RawMessage) (string, error) {
	var output string
	if err := json.Unmarshal(raw, &output); err != nil {
		return "", fmt.Errorf("decode output: %w", err)
	}

	return output, nil
}

func (m *Monitor) write(req request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s: %w", req.Execute, err)
	}

	data = append(data, '\n')

	if _, err := m.writer.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", req.Execute, err)
	}

	return nil
}

func (m *Monitor) read() (*response, error) {
	line, err := m.reader.ReadBytes('\n')
	if err != nil {
		switch {
		case errors.Is(err, os.ErrDeadlineExceeded):
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		case len(line) == 0 && errors.Is(err, io.EOF):
			return nil, &ProtocolError{"connection closed"}
		case len(line) == 0:
			return nil, fmt.Errorf("read: %w", err)
		}
	}

	var msg response
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	return &msg, nil
}
