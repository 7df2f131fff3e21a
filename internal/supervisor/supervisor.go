// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/aibor/qemudut/internal/poll"
	"github.com/aibor/qemudut/internal/qemu"
	"github.com/aibor/qemudut/internal/qmp"
	"golang.org/x/sync/errgroup"
)

// Power switches an instance on and off.
type Power interface {
	On(ctx context.Context) error
	Off(ctx context.Context) error
}

var (
	_ Power = (*Supervisor)(nil)
	_ Power = External{}
)

// External is a [Power] for instances that are managed outside of this
// process. Switching is a no-op.
type External struct{}

// On implements [Power].
func (External) On(context.Context) error { return nil }

// Off implements [Power].
func (External) Off(context.Context) error { return nil }

// Supervisor owns the emulator and multiplexer processes of a single
// instance.
//
// All methods are supposed to be called from a single goroutine, except
// [Supervisor.Close]. It may be called concurrently, e.g. by a signal
// handler, but waits for a running [Supervisor.On] or [Supervisor.Off] to
// return. Cancel their context to cut the wait short.
type Supervisor struct {
	cfg           qemu.InstanceConfig
	multiplexer   string
	consolePort   uint16
	detectVersion VersionDetector
	waitPolicy    poll.Policy
	gracePeriod   time.Duration
	output        io.Writer
	monitor       qmp.Dialer

	mu       sync.Mutex
	version  *semver.Version
	emulator *process
	mux      *process
	running  bool
	closed   bool
}

// New validates the given config and returns a new [Supervisor] for it.
func New(cfg qemu.InstanceConfig, opts ...Option) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.ExtraArgs = append([]string(nil), cfg.ExtraArgs...)

	supervisor := &Supervisor{
		cfg:           cfg,
		multiplexer:   DefaultMultiplexer,
		consolePort:   DefaultConsolePort,
		detectVersion: qemu.DetectVersion,
		waitPolicy:    poll.WaitPolicy,
		gracePeriod:   DefaultGracePeriod,
		monitor: qmp.Dialer{
			Address: localAddress(cfg.QMPPort),
			Timeout: qmp.DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(supervisor)
	}

	if supervisor.consolePort == cfg.QMPPort || supervisor.consolePort == cfg.SerialPort {
		return nil, fmt.Errorf("%w: console port %d", ErrPortCollision, supervisor.consolePort)
	}

	return supervisor, nil
}

// Config returns a copy of the instance config.
func (s *Supervisor) Config() qemu.InstanceConfig {
	cfg := s.cfg
	cfg.ExtraArgs = append([]string(nil), s.cfg.ExtraArgs...)

	return cfg
}

// ConsolePort returns the TCP port console clients can attach to.
func (s *Supervisor) ConsolePort() uint16 {
	return s.consolePort
}

// Running returns true if the instance is switched on.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// CommandLine returns the emulator command line.
func (s *Supervisor) CommandLine(ctx context.Context) ([]string, error) {
	version, err := s.emulatorVersion(ctx)
	if err != nil {
		return nil, err
	}

	return qemu.BuildCommandLine(s.cfg, version)
}

// BaseCommandLine returns the emulator command line without the sockets the
// supervisor relies on.
func (s *Supervisor) BaseCommandLine(ctx context.Context) ([]string, error) {
	version, err := s.emulatorVersion(ctx)
	if err != nil {
		return nil, err
	}

	return qemu.BuildBaseCommandLine(s.cfg, version)
}

// On starts the instance. It is a no-op if it is running already.
//
// If any step fails, everything started so far is torn down again.
func (s *Supervisor) On(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.running {
		return nil
	}

	if err := checkPortsFree(ctx, s.cfg.QMPPort, s.cfg.SerialPort, s.consolePort); err != nil {
		return err
	}

	cmdline, err := s.CommandLine(ctx)
	if err != nil {
		return err
	}

	if err := s.start(ctx, cmdline); err != nil {
		s.stopProcesses()
		return err
	}

	s.running = true

	if _, err := s.Execute(ctx, "cont", nil); err != nil {
		s.stopProcesses()
		s.running = false

		return fmt.Errorf("resume emulator: %w", err)
	}

	slog.Info("Instance running",
		slog.Int("qmp_port", int(s.cfg.QMPPort)),
		slog.Int("console_port", int(s.consolePort)),
	)

	return nil
}

func (s *Supervisor) start(ctx context.Context, cmdline []string) error {
	emulator, err := startProcess("qemu", cmdline, s.output)
	if err != nil {
		return err
	}

	s.emulator = emulator

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return waitForPort(egCtx, s.waitPolicy, s.cfg.QMPPort, emulator)
	})
	eg.Go(func() error {
		return waitForPort(egCtx, s.waitPolicy, s.cfg.SerialPort, emulator)
	})

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("wait for emulator: %w", err)
	}

	muxCmdline := append(
		[]string{s.multiplexer},
		multiplexerArgs(s.cfg.SerialPort, s.consolePort)...,
	)

	mux, err := startProcess("ser2net", muxCmdline, s.output)
	if err != nil {
		return err
	}

	s.mux = mux

	if err := waitForPort(ctx, s.waitPolicy, s.consolePort, mux); err != nil {
		return fmt.Errorf("wait for multiplexer: %w", err)
	}

	return nil
}

// Off stops the instance. It is a no-op if it is not running.
func (s *Supervisor) Off(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.mux != nil {
		s.mux.stop(s.gracePeriod)
		s.mux = nil
	}

	if _, err := s.Execute(ctx, "quit", nil); err != nil {
		slog.Warn("Failed to quit emulator", slog.Any("error", err))
	}

	s.stopProcesses()
	s.running = false

	slog.Info("Instance stopped")

	return nil
}

// Cycle restarts the instance.
func (s *Supervisor) Cycle(ctx context.Context) error {
	if err := s.Off(ctx); err != nil {
		return err
	}

	return s.On(ctx)
}

// Close stops all child processes. The [Supervisor] can not be switched on
// afterwards. It is safe to call Close multiple times.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	s.stopProcesses()
	s.running = false

	return nil
}

// Execute runs the QMP command on a new monitor connection.
func (s *Supervisor) Execute(
	ctx context.Context,
	command string,
	arguments any,
) (json.RawMessage, error) {
	return s.monitor.Execute(ctx, command, arguments) //nolint:wrapcheck
}

func (s *Supervisor) emulatorVersion(ctx context.Context) (*semver.Version, error) {
	if s.version != nil {
		return s.version, nil
	}

	version, err := s.detectVersion(ctx, s.cfg.Executable)
	if err != nil {
		return nil, fmt.Errorf("detect emulator version: %w", err)
	}

	slog.Debug("Emulator version detected", slog.String("version", version.String()))

	s.version = version

	return version, nil
}

// stopProcesses terminates the multiplexer and the emulator, if started.
func (s *Supervisor) stopProcesses() {
	if s.mux != nil {
		s.mux.stop(s.gracePeriod)
		s.mux = nil
	}

	if s.emulator != nil {
		s.emulator.stop(s.gracePeriod)
		s.emulator = nil
	}
}

func multiplexerArgs(serialPort, consolePort uint16) []string {
	serial := strconv.FormatUint(uint64(serialPort), 10)
	console := strconv.FormatUint(uint64(consolePort), 10)

	return []string{
		"-n",
		"-d",
		"-Y", "connection: &con01",
		"-Y", "  connector: tcp,localhost," + serial,
		"-Y", "  accepter: tcp,localhost," + console,
		"-Y", "  options:",
		"-Y", "    max-connections: 10",
		"-Y", "    mdns: false",
	}
}
