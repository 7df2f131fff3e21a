// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/aibor/qemudut/internal/pipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWriter(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}

			return a
		},
	}))

	writer := &pipe.LogWriter{Logger: logger, Name: "qemu"}

	_, err := pipe.CopyLines(writer, strings.NewReader("booting\r\nready\n"))
	require.NoError(t, err)

	assert.Equal(t,
		"level=DEBUG msg=booting source=qemu\nlevel=DEBUG msg=ready source=qemu\n",
		buf.String(),
	)
}
