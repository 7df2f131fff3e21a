// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/aibor/qemudut/internal/guest"
	"github.com/aibor/qemudut/internal/hostfwd"
	"github.com/aibor/qemudut/internal/poll"
)

// DefaultAddressTimeout is the time budget for the guest to acquire an
// address.
const DefaultAddressTimeout = 20 * time.Second

// Forwarder maintains port forwardings from the host to the guest.
type Forwarder interface {
	Add(ctx context.Context, remote hostfwd.Endpoint) (hostfwd.Endpoint, error)
	Remove(ctx context.Context, local hostfwd.Endpoint) error
	Reset()
}

// ServiceDriver is a network based guest driver.
type ServiceDriver interface {
	Deactivate() error
	SetNetworkService(service guest.NetworkService)
}

// Rebinder keeps the port forwarding for a guest service in line with the
// guest's current address.
type Rebinder struct {
	console    guest.Runner
	forwarder  Forwarder
	driver     ServiceDriver
	remotePort uint16

	// Policy is used for retrying the address lookup.
	Policy poll.Policy

	forwarding hostfwd.PortForwarding
	bound      bool
}

var _ Forwarder = (*hostfwd.Manager)(nil)

// NewRebinder returns a new [Rebinder] that looks up the guest address with
// the console and forwards to the remotePort of the guest for the driver.
func NewRebinder(
	console guest.Runner,
	forwarder Forwarder,
	driver ServiceDriver,
	remotePort uint16,
) *Rebinder {
	return &Rebinder{
		console:    console,
		forwarder:  forwarder,
		driver:     driver,
		remotePort: remotePort,
		Policy: poll.Policy{
			Interval: poll.DefaultRetryInterval,
			Timeout:  DefaultAddressTimeout,
		},
	}
}

// LocalEndpoint returns the host side of the current forwarding.
func (r *Rebinder) LocalEndpoint() (hostfwd.Endpoint, bool) {
	return r.forwarding.Local, r.bound
}

// Update looks up the guest's primary address and moves the forwarding to
// it, if it changed. The driver is deactivated and pointed to the new
// forwarding in that case.
func (r *Rebinder) Update(ctx context.Context) error {
	address, err := poll.Retry(ctx, "guest address", r.Policy,
		func() (netip.Addr, error) {
			return guest.PrimaryAddress(ctx, r.console)
		},
		isTransient,
	)
	if err != nil {
		return fmt.Errorf("lookup guest address: %w", err)
	}

	remote := hostfwd.Endpoint{Address: address.String(), Port: r.remotePort}

	if r.bound && r.forwarding.Remote == remote {
		slog.Debug("Guest address unchanged", slog.String("remote", remote.String()))
		return nil
	}

	if err := r.driver.Deactivate(); err != nil {
		slog.Warn("Failed to deactivate driver", slog.Any("error", err))
	}

	if r.bound {
		err := r.forwarder.Remove(ctx, r.forwarding.Local)
		if err != nil && !errors.Is(err, hostfwd.ErrForwardNotFound) {
			return fmt.Errorf("remove forwarding: %w", err)
		}

		r.bound = false
	}

	local, err := r.forwarder.Add(ctx, remote)
	if err != nil {
		return fmt.Errorf("add forwarding: %w", err)
	}

	r.forwarding = hostfwd.PortForwarding{Local: local, Remote: remote}
	r.bound = true

	r.driver.SetNetworkService(guest.NetworkService{
		Address: local.Address,
		Port:    local.Port,
	})

	slog.Info("Forwarding updated", slog.String("forwarding", r.forwarding.String()))

	return nil
}

// Reset forgets the current forwarding. It must be called when the emulator
// is stopped, since its forwardings are gone then.
func (r *Rebinder) Reset() {
	r.forwarder.Reset()
	r.forwarding = hostfwd.PortForwarding{}
	r.bound = false
}

func isTransient(err error) bool {
	return errors.Is(err, &guest.ExecutionError{}) ||
		errors.Is(err, guest.ErrNoDefaultRoute) ||
		errors.Is(err, guest.ErrNoAddress)
}
