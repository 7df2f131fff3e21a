// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package strategy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/aibor/qemudut/internal/guest"
	"github.com/aibor/qemudut/internal/poll"
)

// DefaultSSHTimeout is the time budget for the SSH server of the guest to
// become reachable.
const DefaultSSHTimeout = 30 * time.Second

const sshBannerPrefix = "SSH-"

// Power switches the instance on and off.
type Power interface {
	On(ctx context.Context) error
	Off(ctx context.Context) error
}

// Console is the serial console shell driver.
type Console interface {
	guest.Runner
	Activate(ctx context.Context) error
	Deactivate() error
}

// SSH is the SSH shell driver.
type SSH interface {
	ServiceDriver
	Activate(ctx context.Context) error
}

// Network configures the guest network.
type Network interface {
	EnableDHCP(ctx context.Context) error
	EnableLocalDNSQueries(ctx context.Context) error
}

// Dependencies are the collaborators of a [Strategy].
type Dependencies struct {
	Power    Power
	Console  Console
	SSH      SSH
	Network  Network
	Rebinder *Rebinder

	// SSHTimeout bounds waiting for the SSH server. Defaults to
	// [DefaultSSHTimeout].
	SSHTimeout time.Duration
}

// Strategy drives an instance through the bring-up levels.
//
// It is not safe for concurrent use.
type Strategy struct {
	deps   Dependencies
	status Status
}

// New returns a new [Strategy] in [StatusUnknown].
func New(deps Dependencies) *Strategy {
	if deps.SSHTimeout == 0 {
		deps.SSHTimeout = DefaultSSHTimeout
	}

	return &Strategy{deps: deps}
}

// Status returns the current status.
func (s *Strategy) Status() Status {
	return s.status
}

// Transition brings the instance into the target status.
//
// Lower levels are brought up first, as required. If a transition fails, the
// status stays at the last level reached.
func (s *Strategy) Transition(ctx context.Context, target Status) error {
	if target == StatusUnknown || !target.isKnown() {
		return &StrategyError{Status: target}
	}

	if target == s.status {
		slog.Debug("Nothing to do", slog.String("status", target.String()))
		return nil
	}

	slog.Info("Transition",
		slog.String("from", s.status.String()),
		slog.String("to", target.String()),
	)

	var err error

	switch target {
	case StatusOff:
		err = s.off(ctx)
	case StatusShell:
		err = s.shell(ctx)
	case StatusInternet:
		err = s.internet(ctx)
	case StatusSSH:
		err = s.ssh(ctx)
	}

	if err != nil {
		return fmt.Errorf("transition to %s: %w", target, err)
	}

	s.status = target

	return nil
}

func (s *Strategy) off(ctx context.Context) error {
	if err := s.deps.SSH.Deactivate(); err != nil {
		slog.Warn("Failed to deactivate ssh", slog.Any("error", err))
	}

	if err := s.deps.Console.Deactivate(); err != nil {
		slog.Warn("Failed to deactivate console", slog.Any("error", err))
	}

	if err := s.deps.Power.Off(ctx); err != nil {
		return fmt.Errorf("power off: %w", err)
	}

	if s.deps.Rebinder != nil {
		s.deps.Rebinder.Reset()
	}

	return nil
}

func (s *Strategy) shell(ctx context.Context) error {
	if err := s.deps.Power.On(ctx); err != nil {
		return fmt.Errorf("power on: %w", err)
	}

	if err := s.deps.Console.Activate(ctx); err != nil {
		return fmt.Errorf("activate console: %w", err)
	}

	return nil
}

func (s *Strategy) internet(ctx context.Context) error {
	if err := s.Transition(ctx, StatusShell); err != nil {
		return err
	}

	if err := s.deps.Network.EnableDHCP(ctx); err != nil {
		return fmt.Errorf("enable dhcp: %w", err)
	}

	if err := s.deps.Network.EnableLocalDNSQueries(ctx); err != nil {
		return fmt.Errorf("enable local dns queries: %w", err)
	}

	return nil
}

func (s *Strategy) ssh(ctx context.Context) error {
	if err := s.Transition(ctx, StatusInternet); err != nil {
		return err
	}

	if s.deps.Rebinder == nil {
		return &SetupError{Msg: "no network rebinder"}
	}

	if err := s.deps.Rebinder.Update(ctx); err != nil {
		return fmt.Errorf("update network service: %w", err)
	}

	local, bound := s.deps.Rebinder.LocalEndpoint()
	if !bound {
		return &SetupError{Msg: "no ssh forwarding"}
	}

	policy := poll.Policy{
		Interval: poll.DefaultWaitInterval,
		Timeout:  s.deps.SSHTimeout,
	}

	_, err := poll.Retry(ctx, "ssh reachable on "+local.String(), policy,
		func() (struct{}, error) {
			return struct{}{}, probeSSH(ctx, local.String())
		},
		nil,
	)
	if err != nil {
		return &SetupError{Msg: "ssh not reachable", Err: err}
	}

	if err := s.deps.SSH.Activate(ctx); err != nil {
		return &SetupError{Msg: "ssh login", Err: err}
	}

	return nil
}

// probeSSH connects to the address and reads the SSH banner. A plain connect
// is not sufficient, since the emulator accepts connections on forwarded
// ports even if the guest does not.
func probeSSH(ctx context.Context, address string) error {
	dialer := net.Dialer{Timeout: time.Second}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	banner := make([]byte, len(sshBannerPrefix))
	if _, err := io.ReadFull(conn, banner); err != nil {
		return fmt.Errorf("read banner: %w", err)
	}

	if string(banner) != sshBannerPrefix {
		return fmt.Errorf("unexpected banner: %q", banner)
	}

	return nil
}
