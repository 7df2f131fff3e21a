// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qmp implements a minimal client for the QEMU Machine Protocol.
//
// QMP is newline delimited JSON. After the connection is established, the
// server sends a greeting that must be answered by a capabilities negotiation
// before any command is accepted. Commands are answered with either a return
// or an error object. Asynchronous event objects may be interleaved at any
// time and are discarded.
//
// A [Monitor] runs one command at a time on an established stream. A [Dialer]
// connects to a TCP monitor socket for each command, which keeps the
// emulator free of long lived monitor sessions.
package qmp
