// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import "errors"

var (
	// ErrExternalInstance is returned if a command requires an instance
	// managed by this process.
	ErrExternalInstance = errors.New("instance is managed externally")

	// ErrEndpointInvalid is returned if an endpoint argument can not be
	// parsed.
	ErrEndpointInvalid = errors.New("invalid endpoint")
)

// Exit codes.
const (
	exitCodeSuccess    = 0
	exitCodeError      = 1
	exitCodeTransition = 2
	exitCodeSetup      = 3
)
