// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package strategy brings an instance up in layers: powered off, shell on the
// serial console, internet access on the guest and finally SSH reachable
// from the host through a port forwarding.
package strategy
