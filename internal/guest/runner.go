// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"context"
	"fmt"
	"strings"

	"github.com/aibor/qemudut/internal/poll"
)

// Result is the outcome of a command run on the guest.
type Result struct {
	Output   []string
	ExitCode int
}

// Runner runs shell commands on the guest.
type Runner interface {
	Run(ctx context.Context, command string) (Result, error)
}

// RunCheck runs the command and returns its output lines joined by newline.
//
// It returns an [ExecutionError] if the command exits with non-zero exit
// code.
func RunCheck(ctx context.Context, runner Runner, command string) (string, error) {
	result, err := runner.Run(ctx, command)
	if err != nil {
		return "", fmt.Errorf("run %q: %w", command, err)
	}

	if result.ExitCode != 0 {
		return "", &ExecutionError{
			Command:  command,
			ExitCode: result.ExitCode,
			Output:   result.Output,
		}
	}

	return strings.Join(result.Output, "\n"), nil
}

// WaitForCommand runs the command repeatedly until it exits successfully.
func WaitForCommand(
	ctx context.Context,
	runner Runner,
	command string,
	policy poll.Policy,
) error {
	return poll.WaitFor(ctx, "command "+command, policy, func() bool {
		result, err := runner.Run(ctx, command)
		return err == nil && result.ExitCode == 0
	}) //nolint:wrapcheck
}

func splitLines(text string) []string {
	lines := []string{}

	for line := range strings.Lines(text) {
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}

	return lines
}
