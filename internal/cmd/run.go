// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aibor/qemudut/internal/strategy"
)

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func handleRunError(err error, errOutput io.Writer) int {
	if err == nil {
		return exitCodeSuccess
	}

	fmt.Fprintf(errOutput, "Error [qemudut]: %v\n", err)

	switch {
	case errors.Is(err, &strategy.SetupError{}):
		return exitCodeSetup
	case errors.Is(err, &strategy.StrategyError{}):
		return exitCodeTransition
	default:
		return exitCodeError
	}
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	setupLogging(cfg.Stderr)

	root := newRootCommand(cfg)
	root.SetArgs(args)

	return handleRunError(root.ExecuteContext(ctx), cfg.Stderr)
}
