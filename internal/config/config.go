// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aibor/qemudut/internal/guest"
	"github.com/aibor/qemudut/internal/qemu"
	"github.com/aibor/qemudut/internal/supervisor"
	"github.com/aibor/qemudut/internal/sys"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the emulator ports.
const (
	EnvQMPPort    = "QEMUDUT_QMP_PORT"
	EnvSerialPort = "QEMUDUT_SERIAL_PORT"
)

// Config is the environment of a device under test.
type Config struct {
	// Arch selects architecture specific instance defaults. Defaults to the
	// host architecture.
	Arch sys.Arch `yaml:"arch"`

	// External is set if the instance is managed outside of this process.
	External bool `yaml:"external"`

	Instance qemu.InstanceConfig `yaml:"instance"`
	Console  Console             `yaml:"console"`
	SSH      guest.SSHConfig     `yaml:"ssh"`
	Images   Images              `yaml:"images"`
	Timeouts Timeouts            `yaml:"timeouts"`
}

// Console configures the serial console and its multiplexer.
type Console struct {
	guest.ConsoleConfig `yaml:",inline"`

	// Port is the TCP port the multiplexer accepts console clients on.
	Port uint16 `yaml:"port"`

	// Multiplexer is the path to the ser2net binary.
	Multiplexer string `yaml:"multiplexer"`
}

// Images configures disk image download.
type Images struct {
	DiskURL   string `yaml:"disk_url"`
	Overwrite bool   `yaml:"overwrite"`
}

// Timeouts for the bring-up.
type Timeouts struct {
	// SSH bounds waiting for the SSH server of the guest.
	SSH time.Duration `yaml:"ssh"`
	// Address bounds waiting for the guest to acquire an address.
	Address time.Duration `yaml:"address"`
	// Startup bounds waiting for the emulator sockets.
	Startup time.Duration `yaml:"startup"`
}

// Load reads the config file at path, applies environment overrides and
// defaults and validates the result. Relative file paths in the config are
// resolved against the directory of the config file.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	cfg, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}

	cfg.ResolvePaths(dir)

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.AddDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	return cfg, nil
}

// Decode parses the YAML document. Unknown fields are rejected. An empty
// document results in an empty config.
func Decode(r io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var cfg Config

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	return &cfg, nil
}

// ResolvePaths makes all relative file paths absolute relative to dir.
func (c *Config) ResolvePaths(dir string) {
	for _, path := range []*string{
		&c.Instance.Kernel,
		&c.Instance.Disk,
		&c.Instance.Flash,
		&c.Instance.Rootfs,
		&c.Instance.DTB,
		&c.Instance.BIOS,
	} {
		resolvePath(dir, path)
	}
}

// ApplyEnv overrides the emulator ports with the values of [EnvQMPPort] and
// [EnvSerialPort], if set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for name, port := range map[string]*uint16{
		EnvQMPPort:    &c.Instance.QMPPort,
		EnvSerialPort: &c.Instance.SerialPort,
	} {
		value, exists := lookup(name)
		if !exists || value == "" {
			continue
		}

		parsed, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return &EnvError{Name: name, Value: value, Err: err}
		}

		*port = uint16(parsed)
	}

	return nil
}

// AddDefaults sets defaults for all unset fields.
func (c *Config) AddDefaults() error {
	if c.Arch == "" {
		c.Arch = sys.Native
	}

	if err := c.Instance.AddDefaultsFor(c.Arch); err != nil {
		return fmt.Errorf("instance defaults: %w", err)
	}

	c.Console.AddDefaults()
	c.SSH.AddDefaults()

	if c.Console.Port == 0 {
		c.Console.Port = supervisor.DefaultConsolePort
	}

	if c.Console.Multiplexer == "" {
		c.Console.Multiplexer = supervisor.DefaultMultiplexer
	}

	return nil
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	if c.External {
		if c.Console.Port == 0 || c.Instance.QMPPort == 0 {
			return ErrExternalPorts
		}

		return nil
	}

	if err := c.Instance.Validate(); err != nil {
		return fmt.Errorf("instance: %w", err)
	}

	if c.Console.Port == c.Instance.QMPPort || c.Console.Port == c.Instance.SerialPort {
		return fmt.Errorf("%w: console port %d", ErrPortCollision, c.Console.Port)
	}

	if c.Images.DiskURL != "" && c.Instance.Disk == "" {
		return ErrDiskNotSet
	}

	// Without download, the files must exist already.
	files := []string{c.Instance.Kernel, c.Instance.Flash, c.Instance.DTB, c.Instance.BIOS}
	if c.Images.DiskURL == "" {
		files = append(files, c.Instance.Disk)
	}

	for _, file := range files {
		if file == "" {
			continue
		}

		if err := validateFilePath(file); err != nil {
			return fmt.Errorf("file %s: %w", file, err)
		}
	}

	return nil
}
