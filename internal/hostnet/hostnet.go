// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package hostnet provides information about the host network.
package hostnet

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/vishvananda/netlink"
)

// ErrNoPrimaryAddress is returned if no IPv4 route has a preferred source
// address.
var ErrNoPrimaryAddress = errors.New("no primary address")

// PrimaryAddress returns the preferred source address of the first IPv4
// route that has one. Guests reach host services on this address.
func PrimaryAddress() (netip.Addr, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("list routes: %w", err)
	}

	return primaryAddress(routes)
}

func primaryAddress(routes []netlink.Route) (netip.Addr, error) {
	for _, route := range routes {
		if route.Src == nil {
			continue
		}

		addr, ok := netip.AddrFromSlice(route.Src.To4())
		if !ok {
			continue
		}

		return addr, nil
	}

	return netip.Addr{}, ErrNoPrimaryAddress
}
