// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package supervisor runs the emulator process of a device under test and a
// ser2net multiplexer that allows multiple clients to attach to the serial
// console at once.
//
// The emulator is started paused. It is resumed by a QMP "cont" command once
// the QMP socket, the serial socket and the multiplexer are reachable. All
// child processes receive SIGKILL if the supervising process dies.
package supervisor
