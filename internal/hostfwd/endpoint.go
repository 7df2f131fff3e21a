// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostfwd

import "strconv"

// Endpoint is a host address and a TCP port.
type Endpoint struct {
	Address string
	Port    uint16
}

// String implements [fmt.Stringer].
func (e Endpoint) String() string {
	return e.Address + ":" + strconv.FormatUint(uint64(e.Port), 10)
}

// IsZero returns true if the endpoint is unset.
func (e Endpoint) IsZero() bool {
	return e == Endpoint{}
}

// PortForwarding is a single NAT rule. Connections to Local are redirected to
// Remote in the guest network.
type PortForwarding struct {
	Local  Endpoint
	Remote Endpoint
}

// String implements [fmt.Stringer].
func (f PortForwarding) String() string {
	return f.Local.String() + "-" + f.Remote.String()
}

// Table maps remote endpoints to the local endpoints that forward to them.
type Table map[Endpoint]Endpoint
