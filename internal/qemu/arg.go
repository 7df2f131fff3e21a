// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"fmt"
	"slices"
	"strings"
)

// Argument is a QEMU argument with or without value.
//
// Its name might be marked to be unique in a list of arguments.
type Argument struct {
	name          string
	value         string
	nonUniqueName bool
}

// String implements [fmt.Stringer].
func (a Argument) String() string {
	s := "-" + a.name
	if a.value != "" {
		s += " " + a.value
	}

	return s
}

// Name returns the name of the [Argument].
func (a Argument) Name() string {
	return a.name
}

// Value returns the value of the [Argument].
func (a Argument) Value() string {
	return a.value
}

// UniqueName returns if the name of the [Argument] must be unique in an
// argument list.
func (a Argument) UniqueName() bool {
	return !a.nonUniqueName
}

// Equal compares the [Argument]s.
//
// If the name of any of both is marked unique, only names are compared.
// Otherwise name and value are compared.
func (a Argument) Equal(other Argument) bool {
	if a.name != other.name {
		return false
	}

	if a.nonUniqueName && other.nonUniqueName {
		return a.value == other.value
	}

	return true
}

// UniqueArg returns a new [Argument] with the given name that is marked as
// unique and so can be used in an argument list only once.
func UniqueArg(name string, value ...string) Argument {
	return Argument{
		name:  name,
		value: strings.Join(value, ","),
	}
}

// RepeatableArg returns a new [Argument] with the given name that is not
// unique and so can be used in an argument list multiple times.
func RepeatableArg(name string, value ...string) Argument {
	return Argument{
		name:          name,
		value:         strings.Join(value, ","),
		nonUniqueName: true,
	}
}

// ParseArguments converts a raw argument list, like user provided extra
// arguments, into repeatable [Argument]s.
//
// Each item starting with a dash starts a new argument. A following item
// without leading dash is its value.
func ParseArguments(raw []string) ([]Argument, error) {
	args := make([]Argument, 0, len(raw))

	for _, item := range raw {
		name, isName := strings.CutPrefix(item, "-")

		switch {
		case isName && name != "":
			args = append(args, RepeatableArg(name))
		case len(args) > 0 && args[len(args)-1].value == "":
			args[len(args)-1].value = item
		default:
			return nil, &ArgumentError{"value without argument name: " + item}
		}
	}

	return args, nil
}

// BuildArgumentStrings compiles the [Argument]s to into a slice of strings
// which can be used with [exec.Command].
//
// It returns an error if any name uniqueness constraints of any [Argument] is
// violated.
func BuildArgumentStrings(args []Argument) ([]string, error) {
	argString := make([]string, 0, len(args))

	for idx, arg := range args {
		if i := slices.IndexFunc(args[:idx], arg.Equal); i != -1 {
			return nil, fmt.Errorf(
				"%w: %s, %s",
				ErrArgumentCollision,
				arg.String(),
				args[i].String(),
			)
		}

		argString = append(argString, "-"+arg.name)

		if arg.value != "" {
			argString = append(argString, arg.value)
		}
	}

	return argString, nil
}
