// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"github.com/aibor/qemudut/internal/config"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "qemudut.yaml"

// globals are the flags shared by all commands.
type globals struct {
	configPath string
	debug      bool
}

func (g *globals) loadConfig() (*config.Config, error) {
	return config.Load(g.configPath) //nolint:wrapcheck
}

func newRootCommand(cfg IO) *cobra.Command {
	flags := &globals{}

	root := &cobra.Command{
		Use:   "qemudut",
		Short: "Control a QEMU emulated device under test",
		Long: `qemudut starts a QEMU emulated device, brings it up to a usable state
and maintains the port forwardings needed to reach it from the host.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setDebug(flags.debug)
		},
	}

	root.SetIn(cfg.Stdin)
	root.SetOut(cfg.Stdout)
	root.SetErr(cfg.Stderr)

	root.PersistentFlags().StringVarP(
		&flags.configPath,
		"config",
		"c",
		defaultConfigFile,
		"environment file",
	)

	root.PersistentFlags().BoolVar(
		&flags.debug,
		"debug",
		false,
		"enable debug output",
	)

	root.AddCommand(
		newUpCommand(flags),
		newCmdlineCommand(flags),
		newForwardsCommand(flags),
		newHostCommand(),
	)

	return root
}
