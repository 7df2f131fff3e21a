// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// DefaultTimeout is the read timeout used by a [Dialer] with zero Timeout.
const DefaultTimeout = 10 * time.Second

// Dialer connects to a QMP TCP socket.
type Dialer struct {
	// Address is the host:port of the monitor socket.
	Address string

	// Timeout bounds connection setup and every single read.
	Timeout time.Duration
}

// Client is a [Monitor] on a network connection.
type Client struct {
	*Monitor

	conn net.Conn
	stop func() bool
}

// Close tears down the connection.
func (c *Client) Close() error {
	c.stop()
	return c.conn.Close() //nolint:wrapcheck
}

// Dial connects to the monitor and negotiates the session.
//
// Cancellation of the context aborts pending reads of the returned [Client].
func (d Dialer) Dial(ctx context.Context) (*Client, error) {
	timeout := d.timeout()
	dialer := net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.Address, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})

	timedConn := &deadlineConn{Conn: conn, ctx: ctx, timeout: timeout}

	monitor, err := New(timedConn, conn)
	if err != nil {
		stop()
		_ = conn.Close()

		return nil, errors.Join(err, ctx.Err())
	}

	return &Client{
		Monitor: monitor,
		conn:    conn,
		stop:    stop,
	}, nil
}

// Execute opens a new session, runs the command and closes the session
// again.
func (d Dialer) Execute(
	ctx context.Context,
	command string,
	arguments any,
) (json.RawMessage, error) {
	client, err := d.Dial(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close QMP connection",
				slog.String("address", d.Address),
				slog.Any("error", err),
			)
		}
	}()

	slog.Debug("Execute QMP command", slog.String("command", command))

	result, err := client.Execute(command, arguments)
	if err != nil {
		return nil, errors.Join(err, ctx.Err())
	}

	return result, nil
}

func (d Dialer) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}

	return DefaultTimeout
}

// deadlineConn renews the read deadline before each read. The deadline never
// exceeds the one of the context.
type deadlineConn struct {
	net.Conn

	ctx     context.Context //nolint:containedctx
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err //nolint:wrapcheck
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := c.ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := c.SetReadDeadline(deadline); err != nil {
		return 0, fmt.Errorf("set deadline: %w", err)
	}

	return c.Conn.Read(b) //nolint:wrapcheck
}
