// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostfwd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aibor/qemudut/internal/qmp"
)

const humanMonitorCommand = "human-monitor-command"

// Executor runs QMP commands.
type Executor interface {
	Execute(ctx context.Context, command string, arguments any) (json.RawMessage, error)
}

// Option configures a [Manager].
type Option func(*Manager)

// WithPortAllocator sets the function used to pick local ports for new
// forwardings. Defaults to [FreePort].
func WithPortAllocator(fn func() (uint16, error)) Option {
	return func(m *Manager) {
		m.allocatePort = fn
	}
}

// WithLocalAddress sets the host address new forwardings are bound to.
// Defaults to [DefaultLocalAddress].
func WithLocalAddress(address string) Option {
	return func(m *Manager) {
		m.localAddress = address
	}
}

// Manager maintains the forwardings of a single emulator instance.
//
// It is not safe for concurrent use.
type Manager struct {
	monitor      Executor
	allocatePort func() (uint16, error)
	localAddress string

	// Forwardings created by this manager, keyed by local endpoint.
	registry map[Endpoint]PortForwarding
}

// NewManager creates a new [Manager] that runs its commands with the given
// [Executor].
func NewManager(monitor Executor, opts ...Option) *Manager {
	manager := &Manager{
		monitor:      monitor,
		allocatePort: FreePort,
		localAddress: DefaultLocalAddress,
		registry:     make(map[Endpoint]PortForwarding),
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// Forwardings queries the currently active forwardings.
func (m *Manager) Forwardings(ctx context.Context) (Table, error) {
	output, err := m.humanMonitorCommand(ctx, InfoCommand)
	if err != nil {
		return nil, err
	}

	return ParseTable(output), nil
}

// Registered returns the forwardings created by this manager.
func (m *Manager) Registered() []PortForwarding {
	forwardings := make([]PortForwarding, 0, len(m.registry))
	for _, forwarding := range m.registry {
		forwardings = append(forwardings, forwarding)
	}

	return forwardings
}

// Reset forgets all registered forwardings. It must be called after the
// emulator restarted, since its table starts empty then.
func (m *Manager) Reset() {
	clear(m.registry)
}

// Add makes sure a forwarding to the given remote endpoint exists and returns
// its local endpoint.
//
// An existing forwarding is reused. Otherwise a new one is created on a free
// local port.
func (m *Manager) Add(ctx context.Context, remote Endpoint) (Endpoint, error) {
	table, err := m.Forwardings(ctx)
	if err != nil {
		return Endpoint{}, err
	}

	if local, exists := table[remote]; exists {
		slog.Debug("Reuse existing forwarding",
			slog.String("local", local.String()),
			slog.String("remote", remote.String()),
		)

		m.register(PortForwarding{Local: local, Remote: remote})

		return local, nil
	}

	port, err := m.allocatePort()
	if err != nil {
		return Endpoint{}, fmt.Errorf("allocate local port: %w", err)
	}

	forwarding := PortForwarding{
		Local:  Endpoint{Address: m.localAddress, Port: port},
		Remote: remote,
	}

	if err := m.add(ctx, forwarding); err != nil {
		return Endpoint{}, err
	}

	return forwarding.Local, nil
}

// Replace makes sure the given local endpoint forwards to the given remote
// endpoint.
//
// Any other rule bound to the local endpoint is removed first, since the
// emulator rejects a second bind to the same local endpoint.
func (m *Manager) Replace(ctx context.Context, local, remote Endpoint) error {
	table, err := m.Forwardings(ctx)
	if err != nil {
		return err
	}

	forwarding := PortForwarding{Local: local, Remote: remote}

	if current, exists := table[remote]; exists && current == local {
		m.register(forwarding)
		return nil
	}

	_, registered := m.registry[local]
	if registered || boundTo(table, local) {
		if err := m.remove(ctx, local); err != nil {
			return err
		}
	}

	return m.add(ctx, forwarding)
}

// Remove removes the forwarding bound to the given local endpoint.
//
// It returns [ErrForwardNotFound] if the manager did not create a forwarding
// for the endpoint.
func (m *Manager) Remove(ctx context.Context, local Endpoint) error {
	if _, exists := m.registry[local]; !exists {
		return fmt.Errorf("%w: %s", ErrForwardNotFound, local)
	}

	return m.remove(ctx, local)
}

func (m *Manager) add(ctx context.Context, forwarding PortForwarding) error {
	if err := m.ruleCommand(ctx, AddCommand(forwarding)); err != nil {
		return err
	}

	slog.Debug("Forwarding added", slog.String("rule", forwarding.String()))

	m.register(forwarding)

	return nil
}

func (m *Manager) remove(ctx context.Context, local Endpoint) error {
	if err := m.ruleCommand(ctx, RemoveCommand(local)); err != nil {
		return err
	}

	slog.Debug("Forwarding removed", slog.String("local", local.String()))

	delete(m.registry, local)

	return nil
}

func (m *Manager) register(forwarding PortForwarding) {
	m.registry[forwarding.Local] = forwarding
}

func (m *Manager) ruleCommand(ctx context.Context, cmdline string) error {
	output, err := m.humanMonitorCommand(ctx, cmdline)
	if err != nil {
		return err
	}

	if output = strings.TrimSpace(output); output != "" {
		return &RuleError{Command: cmdline, Output: output}
	}

	return nil
}

func (m *Manager) humanMonitorCommand(ctx context.Context, cmdline string) (string, error) {
	raw, err := m.monitor.Execute(ctx, humanMonitorCommand, qmp.HumanMonitorArguments(cmdline))
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmdline, err)
	}

	return qmp.DecodeOutput(raw)
}

func boundTo(table Table, local Endpoint) bool {
	for _, l := range table {
		if l == local {
			return true
		}
	}

	return false
}
