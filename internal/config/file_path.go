// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
)

// resolvePath makes a relative path absolute relative to dir. Empty paths
// stay empty.
func resolvePath(dir string, path *string) {
	if *path == "" || filepath.IsAbs(*path) {
		return
	}

	*path = filepath.Join(dir, *path)
}

func validateFilePath(name string) error {
	stat, err := os.Stat(name)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if !stat.Mode().IsRegular() {
		return ErrNotRegularFile
	}

	return nil
}
