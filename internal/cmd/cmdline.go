// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCmdlineCommand(flags *globals) *cobra.Command {
	var base bool

	cmd := &cobra.Command{
		Use:   "cmdline",
		Short: "Print the emulator command line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			sup, err := newSupervisor(cfg)
			if err != nil {
				return err
			}
			defer sup.Close()

			build := sup.CommandLine
			if base {
				build = sup.BaseCommandLine
			}

			cmdline, err := build(cmd.Context())
			if err != nil {
				return fmt.Errorf("build command line: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(cmdline, " "))

			return err //nolint:wrapcheck
		},
	}

	cmd.Flags().BoolVar(&base, "base", false,
		"omit the monitor and serial sockets, for running the emulator interactively")

	return cmd
}
