// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"cmp"
	"fmt"
	"io"
	"net"
	"slices"
	"strconv"

	"github.com/aibor/qemudut/internal/hostfwd"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newForwardsCommand(flags *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forwards",
		Short: "List the port forwardings of the running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			manager := hostfwd.NewManager(newMonitor(cfg))

			forwardings, err := manager.Forwardings(cmd.Context())
			if err != nil {
				return fmt.Errorf("query forwardings: %w", err)
			}

			renderForwardings(cmd.OutOrStdout(), forwardings)

			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add REMOTE",
		Short: "Forward a free local port to the remote guest endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, err := parseEndpoint(args[0])
			if err != nil {
				return err
			}

			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			manager := hostfwd.NewManager(newMonitor(cfg))

			local, err := manager.Add(cmd.Context(), remote)
			if err != nil {
				return fmt.Errorf("add forwarding: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), local)

			return err //nolint:wrapcheck
		},
	})

	return cmd
}

func parseEndpoint(s string) (hostfwd.Endpoint, error) {
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return hostfwd.Endpoint{}, fmt.Errorf("%w: %w", ErrEndpointInvalid, err)
	}

	parsed, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return hostfwd.Endpoint{}, fmt.Errorf("%w: port %s", ErrEndpointInvalid, port)
	}

	return hostfwd.Endpoint{Address: host, Port: uint16(parsed)}, nil
}

func renderForwardings(out io.Writer, forwardings hostfwd.Table) {
	rows := make([]hostfwd.PortForwarding, 0, len(forwardings))
	for remote, local := range forwardings {
		rows = append(rows, hostfwd.PortForwarding{Local: local, Remote: remote})
	}

	slices.SortFunc(rows, func(a, b hostfwd.PortForwarding) int {
		return cmp.Or(
			cmp.Compare(a.Local.Address, b.Local.Address),
			cmp.Compare(a.Local.Port, b.Local.Port),
		)
	})

	writer := table.NewWriter()
	writer.SetOutputMirror(out)
	writer.SetStyle(table.StyleRounded)
	writer.AppendHeader(table.Row{"Local", "Remote"})

	for _, row := range rows {
		writer.AppendRow(table.Row{row.Local.String(), row.Remote.String()})
	}

	writer.Render()
}
