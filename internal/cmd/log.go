// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"io"
	"log/slog"
)

// logLevel is shared by the handler installed in [setupLogging], so flags
// parsed later can still raise the verbosity.
var logLevel = new(slog.LevelVar)

// setupLogging installs a text handler on writer. Child process output is
// logged at debug level, so it only shows up with --debug.
func setupLogging(writer io.Writer) {
	logLevel.Set(slog.LevelWarn)

	slog.SetDefault(slog.New(slog.NewTextHandler(
		writer,
		&slog.HandlerOptions{
			Level: logLevel,
		},
	)))
}

func setDebug(debug bool) {
	if debug {
		logLevel.Set(slog.LevelDebug)
	}
}
