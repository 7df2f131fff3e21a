// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

// DefaultSSHPort is the port the SSH server of the guest listens on.
const DefaultSSHPort = 22

// SSHConfig configures an [SSH] driver.
type SSHConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Port is the port of the SSH server on the guest.
	Port uint16 `yaml:"port"`
	// Timeout bounds connection setup.
	Timeout time.Duration `yaml:"timeout"`
}

// AddDefaults sets defaults for all unset fields.
func (c *SSHConfig) AddDefaults() {
	if c.Username == "" {
		c.Username = DefaultUsername
	}

	if c.Port == 0 {
		c.Port = DefaultSSHPort
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// SSH is a shell driver using an SSH connection.
//
// The network service it connects to is set by whoever knows how the guest
// is reachable, usually through a port forwarding.
type SSH struct {
	cfg     SSHConfig
	service NetworkService
	client  *ssh.Client
}

// NewSSH returns a new [SSH] driver. Unset config fields are defaulted.
func NewSSH(cfg SSHConfig) *SSH {
	cfg.AddDefaults()

	return &SSH{cfg: cfg}
}

// RemotePort returns the port of the SSH server on the guest.
func (s *SSH) RemotePort() uint16 {
	return s.cfg.Port
}

// NetworkService returns the service the driver connects to.
func (s *SSH) NetworkService() NetworkService {
	return s.service
}

// SetNetworkService sets the service to connect to on next activation.
func (s *SSH) SetNetworkService(service NetworkService) {
	s.service = service
}

// Active returns true if the driver is connected.
func (s *SSH) Active() bool {
	return s.client != nil
}

// Activate connects to the network service. It is a no-op if already
// active.
func (s *SSH) Activate(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	address := s.service.String()
	dialer := net.Dialer{Timeout: s.cfg.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("connect ssh: %w", err)
	}

	config := &ssh.ClientConfig{
		User: s.cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(s.cfg.Password),
		},
		// Guests are ephemeral with fresh host keys on each boot.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         s.cfg.Timeout,
	}

	deadline := time.Now().Add(s.cfg.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	_ = conn.SetDeadline(deadline)

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("ssh handshake: %w", err)
	}

	_ = conn.SetDeadline(time.Time{})

	s.client = ssh.NewClient(clientConn, chans, reqs)

	slog.Debug("SSH active", slog.String("address", address))

	return nil
}

// Deactivate closes the connection. It is a no-op if not active.
func (s *SSH) Deactivate() error {
	if s.client == nil {
		return nil
	}

	err := s.client.Close()
	s.client = nil

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close ssh: %w", err)
	}

	return nil
}

// Run implements [Runner]. Stdout and stderr are combined.
func (s *SSH) Run(ctx context.Context, command string) (Result, error) {
	if s.client == nil {
		return Result{}, ErrNotActive
	}

	session, err := s.client.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("new session: %w", err)
	}
	defer session.Close()

	var output bytes.Buffer

	session.Stdout = &output
	session.Stderr = &output

	stop := context.AfterFunc(ctx, func() {
		_ = session.Close()
	})
	defer stop()

	var exitErr *ssh.ExitError

	err = session.Run(command)

	switch {
	case err == nil:
		return Result{Output: splitLines(output.String())}, nil
	case errors.As(err, &exitErr):
		return Result{
			Output:   splitLines(output.String()),
			ExitCode: exitErr.ExitStatus(),
		}, nil
	case ctx.Err() != nil:
		return Result{}, errors.Join(ctx.Err(), err)
	default:
		return Result{}, fmt.Errorf("run session: %w", err)
	}
}
