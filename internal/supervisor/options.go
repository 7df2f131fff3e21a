// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"context"
	"io"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/aibor/qemudut/internal/qemu"
)

// Defaults of the [Supervisor].
const (
	DefaultMultiplexer = "/usr/sbin/ser2net"
	DefaultConsolePort = 12345
	DefaultGracePeriod = 5 * time.Second
)

// VersionDetector determines the version of the emulator binary.
type VersionDetector func(ctx context.Context, executable string) (*semver.Version, error)

var _ VersionDetector = qemu.DetectVersion

// Option configures a [Supervisor].
type Option func(*Supervisor)

// WithMultiplexer sets the ser2net binary and the TCP port it accepts console
// clients on.
func WithMultiplexer(executable string, consolePort uint16) Option {
	return func(s *Supervisor) {
		s.multiplexer = executable
		s.consolePort = consolePort
	}
}

// WithVersionDetector replaces [qemu.DetectVersion].
func WithVersionDetector(fn VersionDetector) Option {
	return func(s *Supervisor) {
		s.detectVersion = fn
	}
}

// WithWaitTimeout sets the time each socket may take until it is reachable.
func WithWaitTimeout(timeout time.Duration) Option {
	return func(s *Supervisor) {
		s.waitPolicy.Timeout = timeout
	}
}

// WithGracePeriod sets the time child processes get for terminating before
// they are killed.
func WithGracePeriod(period time.Duration) Option {
	return func(s *Supervisor) {
		s.gracePeriod = period
	}
}

// WithOutput sets the writer child process output is copied to. By default,
// the output is logged at debug level.
//
// The writer must be safe for concurrent use.
func WithOutput(w io.Writer) Option {
	return func(s *Supervisor) {
		s.output = w
	}
}
