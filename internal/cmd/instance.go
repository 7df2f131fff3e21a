// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/aibor/qemudut/internal/config"
	"github.com/aibor/qemudut/internal/guest"
	"github.com/aibor/qemudut/internal/hostfwd"
	"github.com/aibor/qemudut/internal/openwrt"
	"github.com/aibor/qemudut/internal/qmp"
	"github.com/aibor/qemudut/internal/strategy"
	"github.com/aibor/qemudut/internal/supervisor"
)

// instance wires the components for a single device under test.
type instance struct {
	cfg        *config.Config
	supervisor *supervisor.Supervisor
	monitor    hostfwd.Executor
	forwards   *hostfwd.Manager
	console    *guest.Console
	ssh        *guest.SSH
	rebinder   *strategy.Rebinder
	strategy   *strategy.Strategy
}

func localAddress(port uint16) string {
	return net.JoinHostPort("localhost", strconv.Itoa(int(port)))
}

func newMonitor(cfg *config.Config) qmp.Dialer {
	return qmp.Dialer{
		Address: localAddress(cfg.Instance.QMPPort),
		Timeout: qmp.DefaultTimeout,
	}
}

func newSupervisor(cfg *config.Config) (*supervisor.Supervisor, error) {
	if cfg.External {
		return nil, ErrExternalInstance
	}

	opts := []supervisor.Option{
		supervisor.WithMultiplexer(cfg.Console.Multiplexer, cfg.Console.Port),
	}

	if cfg.Timeouts.Startup > 0 {
		opts = append(opts, supervisor.WithWaitTimeout(cfg.Timeouts.Startup))
	}

	sup, err := supervisor.New(cfg.Instance, opts...)
	if err != nil {
		return nil, fmt.Errorf("new supervisor: %w", err)
	}

	return sup, nil
}

func newInstance(cfg *config.Config) (*instance, error) {
	inst := &instance{cfg: cfg}

	var power strategy.Power = supervisor.External{}

	inst.monitor = newMonitor(cfg)

	if !cfg.External {
		sup, err := newSupervisor(cfg)
		if err != nil {
			return nil, err
		}

		inst.supervisor = sup
		inst.monitor = sup
		power = sup
	}

	console, err := guest.NewConsole(localAddress(cfg.Console.Port), cfg.Console.ConsoleConfig)
	if err != nil {
		return nil, fmt.Errorf("new console: %w", err)
	}

	inst.console = console
	inst.ssh = guest.NewSSH(cfg.SSH)
	inst.forwards = hostfwd.NewManager(inst.monitor)
	inst.rebinder = strategy.NewRebinder(console, inst.forwards, inst.ssh, inst.ssh.RemotePort())

	if cfg.Timeouts.Address > 0 {
		inst.rebinder.Policy.Timeout = cfg.Timeouts.Address
	}

	inst.strategy = strategy.New(strategy.Dependencies{
		Power:      power,
		Console:    console,
		SSH:        inst.ssh,
		Network:    openwrt.NewNetwork(console),
		Rebinder:   inst.rebinder,
		SSHTimeout: cfg.Timeouts.SSH,
	})

	return inst, nil
}

// Close disconnects the drivers and stops all child processes.
func (i *instance) Close() error {
	errs := []error{
		i.ssh.Deactivate(),
		i.console.Deactivate(),
	}

	if i.supervisor != nil {
		errs = append(errs, i.supervisor.Close())
	}

	return errors.Join(errs...)
}
