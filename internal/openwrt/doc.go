// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package openwrt wraps the OpenWrt configuration tools uci and service and
// implements the network setup the guest needs for host access.
package openwrt
