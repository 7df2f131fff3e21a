// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package image fetches gzip compressed disk images and extracts them next
// to the compressed file.
package image
