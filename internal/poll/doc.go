// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package poll provides bounded polling loops for conditions observed on
// external systems, like a guest acquiring an address or a port becoming
// reachable.
//
// All loops sleep a fixed interval between attempts and give up once the
// overall timeout is exhausted. Exhaustion is reported as [TimeoutError].
package poll
