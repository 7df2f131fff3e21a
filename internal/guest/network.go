// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"context"
	"net"
	"net/netip"
	"regexp"
	"strconv"
)

var (
	ipv4AddressRegex   = regexp.MustCompile(`inet\s+(\d+\.\d+\.\d+\.\d+)`)
	ipv4GatewayRegex   = regexp.MustCompile(`default\s+via\s+(\d+\.\d+\.\d+\.\d+)`)
	defaultDeviceRegex = regexp.MustCompile(`default\s+via\s+\d+\.\d+\.\d+\.\d+\s+dev\s+([\w.@-]+)`)
)

// NetworkService is the address a network based driver connects to.
type NetworkService struct {
	Address string
	Port    uint16
}

// String returns the service as host:port.
func (s NetworkService) String() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(int(s.Port)))
}

// InterfaceAddresses returns the IPv4 addresses of the given interface.
func InterfaceAddresses(ctx context.Context, runner Runner, ifName string) ([]netip.Addr, error) {
	output, err := RunCheck(ctx, runner, "ip -4 -o addr show dev "+ifName)
	if err != nil {
		return nil, err
	}

	return parseAddresses(ipv4AddressRegex, output), nil
}

// GatewayAddresses returns the gateways of the IPv4 default routes.
func GatewayAddresses(ctx context.Context, runner Runner) ([]netip.Addr, error) {
	output, err := RunCheck(ctx, runner, "ip -4 r s default")
	if err != nil {
		return nil, err
	}

	return parseAddresses(ipv4GatewayRegex, output), nil
}

// DefaultInterface returns the device name of the first IPv4 default route.
func DefaultInterface(ctx context.Context, runner Runner) (string, error) {
	output, err := RunCheck(ctx, runner, "ip -4 r s default")
	if err != nil {
		return "", err
	}

	match := defaultDeviceRegex.FindStringSubmatch(output)
	if match == nil {
		return "", ErrNoDefaultRoute
	}

	return match[1], nil
}

// PrimaryAddress returns the first IPv4 address of the default route's
// interface.
func PrimaryAddress(ctx context.Context, runner Runner) (netip.Addr, error) {
	ifName, err := DefaultInterface(ctx, runner)
	if err != nil {
		return netip.Addr{}, err
	}

	addresses, err := InterfaceAddresses(ctx, runner, ifName)
	if err != nil {
		return netip.Addr{}, err
	}

	if len(addresses) == 0 {
		return netip.Addr{}, ErrNoAddress
	}

	return addresses[0], nil
}

func parseAddresses(re *regexp.Regexp, output string) []netip.Addr {
	addresses := []netip.Addr{}

	for _, match := range re.FindAllStringSubmatch(output, -1) {
		addr, err := netip.ParseAddr(match[1])
		if err != nil {
			continue
		}

		addresses = append(addresses, addr)
	}

	return addresses
}
