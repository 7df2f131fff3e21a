// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// CopyFunc defines a function that reads the data from the given reader into
// the given writer.
//
// It may copy the data as is, like [io.Copy], or mutate or filter it as needed.
type CopyFunc func(dst io.Writer, src io.Reader) (int64, error)

var _ CopyFunc = io.Copy

var _ CopyFunc = CopyLines

// CopyLines is a [CopyFunc] that copies the data line buffered. Carriage
// returns are stripped and empty lines are dropped.
//
// Each line is written with a single call to dst, so dst may treat each
// write as a record.
func CopyLines(dst io.Writer, src io.Reader) (int64, error) {
	var written int64

	scanner := bufio.NewScanner(src)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) > 0 {
			n, err := fmt.Fprintln(dst, line)

			written += int64(n)

			if err != nil {
				return written, fmt.Errorf("write: %w", err)
			}
		}
	}

	err := scanner.Err()
	if err != nil {
		return written, fmt.Errorf("scan: %w", err)
	}

	return written, nil
}

// Copy runs the given [CopyFunc] and wraps any error into an [Error] with the
// given name.
func Copy(name string, fn CopyFunc, dst io.Writer, src io.Reader) error {
	if _, err := fn(dst, src); err != nil {
		return &Error{Name: name, Err: err}
	}

	return nil
}
