// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostfwd

import (
	"fmt"
	"net"
)

// DefaultLocalAddress is the host address new forwardings are bound to.
const DefaultLocalAddress = "127.0.0.1"

// FreePort returns a TCP port on the loopback interface that is currently
// not in use.
//
// The port is only probed, so another process might grab it before it is
// used.
func FreePort() (uint16, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(DefaultLocalAddress, "0"))
	if err != nil {
		return 0, fmt.Errorf("probe free port: %w", err)
	}
	defer listener.Close()

	addr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("probe free port: unexpected address %s", listener.Addr())
	}

	return uint16(addr.Port), nil //nolint:gosec
}
