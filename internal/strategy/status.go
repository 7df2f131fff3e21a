// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package strategy

import "fmt"

// Status is the bring-up level of an instance. Levels are ordered, each
// includes all lower ones except [StatusOff].
type Status int

// Statuses in bring-up order.
const (
	StatusUnknown Status = iota
	StatusOff
	StatusShell
	StatusInternet
	StatusSSH
)

var statusNames = map[Status]string{
	StatusUnknown:  "unknown",
	StatusOff:      "off",
	StatusShell:    "shell",
	StatusInternet: "internet",
	StatusSSH:      "ssh",
}

// ParseStatus returns the [Status] with the given name.
func ParseStatus(name string) (Status, error) {
	for status, statusName := range statusNames {
		if statusName == name {
			return status, nil
		}
	}

	return StatusUnknown, fmt.Errorf("%w: %s", ErrStatusInvalid, name)
}

func (s Status) isKnown() bool {
	_, exists := statusNames[s]
	return exists
}

// String implements [fmt.Stringer].
func (s Status) String() string {
	if name, exists := statusNames[s]; exists {
		return name
	}

	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText implements [encoding.TextMarshaler].
func (s Status) MarshalText() ([]byte, error) {
	if !s.isKnown() {
		return nil, fmt.Errorf("%w: %d", ErrStatusInvalid, int(s))
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *Status) UnmarshalText(text []byte) error {
	status, err := ParseStatus(string(text))
	if err != nil {
		return err
	}

	*s = status

	return nil
}

// Set implements the [pflag.Value] interface.
func (s *Status) Set(value string) error {
	return s.UnmarshalText([]byte(value))
}

// Type implements the [pflag.Value] interface.
func (*Status) Type() string {
	return "status"
}
