// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import "encoding/json"

type request struct {
	Execute   string `json:"execute"`
	Arguments any    `json:"arguments,omitempty"`
}

// response covers all server objects. Keys are detected by presence, so
// raw messages are used.
type response struct {
	QMP    json.RawMessage `json:"QMP"`
	Return json.RawMessage `json:"return"`
	Error  *errorPayload   `json:"error"`
	Event  json.RawMessage `json:"event"`
}

type errorPayload struct {
	Class string `json:"class"`
	Desc  string `json:"desc"`
}

type greeting struct {
	Version struct {
		QEMU struct {
			Major uint64 `json:"major"`
			Minor uint64 `json:"minor"`
			Micro uint64 `json:"micro"`
		} `json:"qemu"`
	} `json:"version"`
}

type humanMonitorArgs struct {
	CommandLine string `json:"command-line"`
}
