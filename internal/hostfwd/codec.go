// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostfwd

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const (
	protocol = "tcp"

	// InfoCommand is the human monitor command reporting the user mode
	// network state.
	InfoCommand = "info usernet"

	addCommand    = "hostfwd_add"
	removeCommand = "hostfwd_remove"

	tableProtocol = "TCP"
	tableState    = "HOST_FORWARD"

	// FD SRC_ADDR SRC_PORT DST_ADDR DST_PORT.
	minFields = 5
)

var errMalformedRow = errors.New("malformed row")

// ParseTable extracts the host forwarding rules from the output of
// [InfoCommand].
//
// Rows look like:
//
//	TCP[HOST_FORWARD]  55       127.0.0.1 56065 192.168.187.100    22     0     0
//
// Only TCP host forwarding rows are considered. Column alignment is
// irrelevant. If two rows forward to the same remote endpoint from different
// local endpoints, the last row wins.
func ParseTable(report string) Table {
	table := make(Table)

	for line := range strings.Lines(report) {
		forwarding, ok, err := parseRow(line)
		if err != nil {
			slog.Warn("Skip unparsable forwarding row",
				slog.String("row", strings.TrimSpace(line)),
				slog.Any("error", err),
			)

			continue
		}

		if !ok {
			continue
		}

		if existing, exists := table[forwarding.Remote]; exists && existing != forwarding.Local {
			slog.Warn("Conflicting forwardings to the same remote",
				slog.String("remote", forwarding.Remote.String()),
				slog.String("dropped", existing.String()),
				slog.String("kept", forwarding.Local.String()),
			)
		}

		table[forwarding.Remote] = forwarding.Local
	}

	return table
}

// parseRow returns false if the row is not a TCP host forwarding.
func parseRow(line string) (PortForwarding, bool, error) {
	openIdx := strings.IndexByte(line, '[')
	if openIdx == -1 {
		return PortForwarding{}, false, nil
	}

	closeIdx := strings.IndexByte(line[openIdx:], ']')
	if closeIdx == -1 {
		return PortForwarding{}, false, nil
	}

	closeIdx += openIdx

	proto := strings.TrimSpace(line[:openIdx])
	state := line[openIdx+1 : closeIdx]

	if proto != tableProtocol || state != tableState {
		return PortForwarding{}, false, nil
	}

	fields := strings.Fields(line[closeIdx+1:])
	if len(fields) < minFields {
		return PortForwarding{}, false, fmt.Errorf("%w: %d fields", errMalformedRow, len(fields))
	}

	local, err := parseEndpoint(fields[1], fields[2])
	if err != nil {
		return PortForwarding{}, false, fmt.Errorf("source: %w", err)
	}

	remote, err := parseEndpoint(fields[3], fields[4])
	if err != nil {
		return PortForwarding{}, false, fmt.Errorf("destination: %w", err)
	}

	return PortForwarding{Local: local, Remote: remote}, true, nil
}

func parseEndpoint(address, port string) (Endpoint, error) {
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: port %q", errMalformedRow, port)
	}

	return Endpoint{Address: address, Port: uint16(p)}, nil
}

// EncodeAdd returns the rule argument for adding the forwarding.
func EncodeAdd(forwarding PortForwarding) string {
	return protocol + ":" + forwarding.String()
}

// EncodeRemove returns the rule argument for removing the forwarding bound to
// the given local endpoint.
func EncodeRemove(local Endpoint) string {
	return protocol + ":" + local.String()
}

// AddCommand returns the human monitor command line adding the forwarding.
func AddCommand(forwarding PortForwarding) string {
	return addCommand + " " + EncodeAdd(forwarding)
}

// RemoveCommand returns the human monitor command line removing the
// forwarding bound to the given local endpoint.
func RemoveCommand(local Endpoint) string {
	return removeCommand + " " + EncodeRemove(local)
}
