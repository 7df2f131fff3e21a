// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package strategy_test

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/aibor/qemudut/internal/guest"
	"github.com/aibor/qemudut/internal/hostfwd"
	"github.com/stretchr/testify/require"
)

// journal records the calls of all fakes in order.
type journal struct {
	events []string
}

func (j *journal) record(format string, args ...any) {
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

type fakePower struct {
	*journal
	err error
}

func (p *fakePower) On(context.Context) error {
	p.record("power on")
	return p.err
}

func (p *fakePower) Off(context.Context) error {
	p.record("power off")
	return p.err
}

// fakeConsole answers the address lookup commands with the current address.
type fakeConsole struct {
	*journal
	address     string
	failLookups int
	activateErr error
}

func (c *fakeConsole) Activate(context.Context) error {
	c.record("console activate")
	return c.activateErr
}

func (c *fakeConsole) Deactivate() error {
	c.record("console deactivate")
	return nil
}

func (c *fakeConsole) Run(_ context.Context, command string) (guest.Result, error) {
	switch command {
	case "ip -4 r s default":
		if c.failLookups > 0 {
			c.failLookups--
			return guest.Result{Output: []string{}}, nil
		}

		return guest.Result{Output: []string{"default via 10.0.2.2 dev br-lan"}}, nil
	case "ip -4 -o addr show dev br-lan":
		return guest.Result{Output: []string{"6: br-lan inet " + c.address + "/24 scope global br-lan"}}, nil
	default:
		return guest.Result{ExitCode: 127}, nil
	}
}

type fakeSSH struct {
	*journal
	service     guest.NetworkService
	activateErr error
}

func (s *fakeSSH) Activate(context.Context) error {
	s.record("ssh activate %s", s.service)
	return s.activateErr
}

func (s *fakeSSH) Deactivate() error {
	s.record("ssh deactivate")
	return nil
}

func (s *fakeSSH) SetNetworkService(service guest.NetworkService) {
	s.record("ssh service %s", service)
	s.service = service
}

type fakeNetwork struct {
	*journal
	dhcpErr error
}

func (n *fakeNetwork) EnableDHCP(context.Context) error {
	n.record("enable dhcp")
	return n.dhcpErr
}

func (n *fakeNetwork) EnableLocalDNSQueries(context.Context) error {
	n.record("enable dns")
	return nil
}

// fakeForwarder hands out the given local endpoints in order.
type fakeForwarder struct {
	*journal
	locals []hostfwd.Endpoint
}

func (f *fakeForwarder) Add(_ context.Context, remote hostfwd.Endpoint) (hostfwd.Endpoint, error) {
	f.record("forward add %s", remote)

	if len(f.locals) == 0 {
		return hostfwd.Endpoint{}, hostfwd.ErrForwardNotFound
	}

	local := f.locals[0]
	f.locals = f.locals[1:]

	return local, nil
}

func (f *fakeForwarder) Remove(_ context.Context, local hostfwd.Endpoint) error {
	f.record("forward remove %s", local)
	return nil
}

func (f *fakeForwarder) Reset() {
	f.record("forward reset")
}

// startBannerServer returns the endpoint of a server that greets like an SSH
// server.
func startBannerServer(t *testing.T) hostfwd.Endpoint {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			_, _ = conn.Write([]byte("SSH-2.0-dropbear\r\n"))
			_ = conn.Close()
		}
	}()

	t.Cleanup(func() {
		_ = listener.Close()
		wg.Wait()
	})

	addr := listener.Addr().(*net.TCPAddr)

	return hostfwd.Endpoint{Address: "127.0.0.1", Port: uint16(addr.Port)}
}

// closedEndpoint returns an endpoint nothing listens on.
func closedEndpoint(t *testing.T) hostfwd.Endpoint {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := listener.Addr().(*net.TCPAddr)
	require.NoError(t, listener.Close())

	return hostfwd.Endpoint{Address: "127.0.0.1", Port: uint16(addr.Port)}
}
