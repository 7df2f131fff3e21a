// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu composes QEMU system emulator command lines for a device under
// test. It expects the required QEMU binary to be present on the system.
//
// The guest is started paused with a QMP socket and its serial console on a
// TCP socket, so the caller can attach to both before letting it run.
package qemu
