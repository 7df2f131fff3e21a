// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package openwrt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aibor/qemudut/internal/guest"
	"github.com/aibor/qemudut/internal/poll"
)

// DefaultNetworkRestartWait is the time to wait after a network restart
// before polling the result.
const DefaultNetworkRestartWait = time.Second

// ErrNoGateway is returned if no gateway is assigned after enabling DHCP.
var ErrNoGateway = errors.New("no gateway assigned")

// Network configures the guest network with uci.
type Network struct {
	Runner guest.Runner

	// RestartWait is the time to wait after a network restart.
	RestartWait time.Duration
	// GatewayPolicy is used for polling the gateway after enabling DHCP.
	GatewayPolicy poll.Policy
}

// NewNetwork returns a new [Network] with default timings.
func NewNetwork(runner guest.Runner) *Network {
	return &Network{
		Runner:      runner,
		RestartWait: DefaultNetworkRestartWait,
		GatewayPolicy: poll.Policy{
			Interval: poll.DefaultRetryInterval,
			Timeout:  poll.DefaultWaitTimeout,
		},
	}
}

// EnableDHCP switches the LAN interface to DHCP, unless it already is, and
// waits until a gateway is assigned.
func (n *Network) EnableDHCP(ctx context.Context) error {
	proto, err := Get(ctx, n.Runner, "network.lan.proto")
	if err != nil {
		return fmt.Errorf("get lan proto: %w", err)
	}

	if proto != "dhcp" {
		slog.Info("Switch LAN to DHCP", slog.String("proto", proto))

		if err := Set(ctx, n.Runner, "network.lan.proto", "dhcp"); err != nil {
			return fmt.Errorf("set lan proto: %w", err)
		}

		if err := Commit(ctx, n.Runner, "network"); err != nil {
			return fmt.Errorf("commit network: %w", err)
		}

		if err := Restart(ctx, n.Runner, "network", "", n.RestartWait); err != nil {
			return fmt.Errorf("restart network: %w", err)
		}
	}

	err = poll.WaitFor(ctx, "gateway assigned", n.GatewayPolicy, func() bool {
		gateways, err := guest.GatewayAddresses(ctx, n.Runner)
		return err == nil && len(gateways) > 0
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoGateway, err)
	}

	return nil
}

// EnableLocalDNSQueries allows dnsmasq to answer queries for local names
// and private address ranges.
func (n *Network) EnableLocalDNSQueries(ctx context.Context) error {
	for _, key := range []string{
		"dhcp.@dnsmasq[0].domainneeded",
		"dhcp.@dnsmasq[0].rebind_protection",
	} {
		if err := Set(ctx, n.Runner, key, false); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}

	if err := Commit(ctx, n.Runner, "dhcp"); err != nil {
		return fmt.Errorf("commit dhcp: %w", err)
	}

	if err := Restart(ctx, n.Runner, "dnsmasq", "", 0); err != nil {
		return fmt.Errorf("restart dnsmasq: %w", err)
	}

	return nil
}
