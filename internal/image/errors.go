// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package image

import (
	"errors"
	"fmt"
)

// ErrNoFileName is returned if the image URL has no file name in its path.
var ErrNoFileName = errors.New("no file name in url")

// StatusError is returned if the image server does not respond with 200.
type StatusError struct {
	URL    string
	Status string
}

// Error implements the [error] interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Status)
}

// Is implements the [errors.Is] interface.
func (*StatusError) Is(other error) bool {
	_, ok := other.(*StatusError)
	return ok
}
