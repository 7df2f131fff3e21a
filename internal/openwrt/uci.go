// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package openwrt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aibor/qemudut/internal/guest"
)

// Value is a value that can be stored in uci.
type Value interface {
	string | int | bool
}

func toUCIValue[V Value](value V) string {
	switch v := any(value).(type) {
	case bool:
		if v {
			return "1"
		}

		return "0"
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(value)
	}
}

// Get returns the value of the given key.
func Get(ctx context.Context, runner guest.Runner, key string) (string, error) {
	return guest.RunCheck(ctx, runner, "uci get "+key) //nolint:wrapcheck
}

// Set sets the key to the given value. Booleans are stored as 1 or 0.
func Set[V Value](ctx context.Context, runner guest.Runner, key string, value V) error {
	_, err := guest.RunCheck(ctx, runner, fmt.Sprintf(`uci set %s="%s"`, key, toUCIValue(value)))
	return err //nolint:wrapcheck
}

// AddList appends the value to the list of the given key.
func AddList[V Value](ctx context.Context, runner guest.Runner, key string, value V) error {
	_, err := guest.RunCheck(ctx, runner, fmt.Sprintf(`uci add_list %s="%s"`, key, toUCIValue(value)))
	return err //nolint:wrapcheck
}

// Commit commits pending changes of the given section. An empty section
// commits all changes.
func Commit(ctx context.Context, runner guest.Runner, section string) error {
	command := "uci commit"
	if section != "" {
		command += " " + section
	}

	_, err := guest.RunCheck(ctx, runner, command)

	return err //nolint:wrapcheck
}

// Restart restarts the service. If unit is not empty, only the given unit
// of the service is restarted. If wait is greater than 0, Restart blocks for
// that long afterwards.
func Restart(ctx context.Context, runner guest.Runner, name, unit string, wait time.Duration) error {
	command := "service " + name + " restart"
	if unit != "" {
		command += " " + unit
	}

	if _, err := guest.RunCheck(ctx, runner, command); err != nil {
		return err //nolint:wrapcheck
	}

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	case <-timer.C:
		return nil
	}
}
