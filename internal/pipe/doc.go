// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pipe provides the transport of child process output into the host
// log. Output is consumed line based, so each line becomes a single log
// record.
package pipe
