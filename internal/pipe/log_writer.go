// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe

import (
	"context"
	"log/slog"
	"strings"
)

// LogWriter is an [io.Writer] that emits every write as a debug log record.
//
// It is supposed to be used as destination of [CopyLines].
type LogWriter struct {
	// Logger to use. If nil, the default logger is used.
	Logger *slog.Logger

	// Name of the source, added as "source" attribute.
	Name string
}

// Write implements [io.Writer].
func (w *LogWriter) Write(p []byte) (int, error) {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.LogAttrs(context.Background(), slog.LevelDebug,
		strings.TrimRight(string(p), "\r\n"),
		slog.String("source", w.Name),
	)

	return len(p), nil
}
