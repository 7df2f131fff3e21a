// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/aibor/qemudut/internal/poll"
	psnet "github.com/shirou/gopsutil/net"
	psprocess "github.com/shirou/gopsutil/process"
)

const listenStatus = "LISTEN"

var errPortClosed = errors.New("port not reachable")

func localAddress(port uint16) string {
	return net.JoinHostPort("localhost", strconv.FormatUint(uint64(port), 10))
}

// waitForPort polls until the given local TCP port accepts connections. It
// gives up early if the process serving the port exits.
func waitForPort(ctx context.Context, policy poll.Policy, port uint16, proc *process) error {
	addr := localAddress(port)

	_, err := poll.Retry(ctx, "port "+addr, policy,
		func() (struct{}, error) {
			if err := proc.exited(); err != nil {
				return struct{}{}, err
			}

			conn, err := net.DialTimeout("tcp", addr, policy.Interval)
			if err != nil {
				return struct{}{}, fmt.Errorf("%w: %w", errPortClosed, err)
			}

			_ = conn.Close()

			return struct{}{}, nil
		},
		func(err error) bool {
			return errors.Is(err, errPortClosed)
		},
	)

	return err //nolint:wrapcheck
}

// checkPortsFree returns a [PortInUseError] if any of the given ports is
// already bound on the host.
//
// If the owner can not be determined, for example due to missing
// permissions, only the port is reported.
func checkPortsFree(ctx context.Context, ports ...uint16) error {
	conns, err := psnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		slog.Warn("Skip port preflight check", slog.Any("error", err))
		return nil
	}

	for _, conn := range conns {
		if conn.Status != listenStatus {
			continue
		}

		for _, port := range ports {
			if conn.Laddr.Port != uint32(port) {
				continue
			}

			portErr := &PortInUseError{Port: port, PID: conn.Pid}

			if conn.Pid != 0 {
				if proc, err := psprocess.NewProcessWithContext(ctx, conn.Pid); err == nil {
					portErr.Process, _ = proc.NameWithContext(ctx)
				}
			}

			return portErr
		}
	}

	return nil
}
