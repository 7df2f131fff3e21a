// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package hostfwd manages the NAT port forwardings of the QEMU user mode
// network stack.
//
// The emulator reports active rules only as free text by the "info usernet"
// human monitor command and accepts new rules in its own small command
// language. [ParseTable], [EncodeAdd] and [EncodeRemove] translate between
// both. A [Manager] keeps track of the rules it created and always consults
// the live table before changing anything.
package hostfwd
