// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/aibor/qemudut/internal/hostnet"
	"github.com/spf13/cobra"
)

func newHostCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Print the primary host address guests reach the host on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := hostnet.PrimaryAddress()
			if err != nil {
				return err //nolint:wrapcheck
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), addr)

			return err //nolint:wrapcheck
		},
	}
}
