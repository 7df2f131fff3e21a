// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package guest provides drivers for running shell commands on the guest
// system, either on the serial console or via SSH.
package guest
