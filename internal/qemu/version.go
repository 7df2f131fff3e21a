// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// DetectVersion runs the given emulator binary and returns its version.
func DetectVersion(ctx context.Context, executable string) (*semver.Version, error) {
	output, err := exec.CommandContext(ctx, executable, "-version").Output()
	if err != nil {
		return nil, fmt.Errorf("run %s -version: %w", executable, err)
	}

	return ParseVersion(output)
}

// ParseVersion extracts the version from the first line of the output of
// "qemu-system-* -version".
func ParseVersion(output []byte) (*semver.Version, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	if !scanner.Scan() {
		return nil, fmt.Errorf("%w: empty output", ErrVersionNotFound)
	}

	line := scanner.Text()

	match := versionPattern.FindString(line)
	if match == "" {
		return nil, fmt.Errorf("%w in %q", ErrVersionNotFound, line)
	}

	version, err := semver.NewVersion(match)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVersionNotFound, err)
	}

	return version, nil
}
