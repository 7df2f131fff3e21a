// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aibor/qemudut/internal/config"
	"github.com/aibor/qemudut/internal/guest"
	"github.com/aibor/qemudut/internal/qemu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv(config.EnvQMPPort, "")
	t.Setenv(config.EnvSerialPort, "")

	cfg, err := config.Load("testdata/openwrt.yaml")
	require.NoError(t, err)

	dir, err := filepath.Abs("testdata")
	require.NoError(t, err)

	assert.Equal(t, qemu.InstanceConfig{
		Executable: "qemu-system-x86_64",
		Machine:    "pc",
		CPU:        "max",
		Memory:     "128M",
		Disk:       filepath.Join(dir, "images/openwrt.img"),
		Display:    qemu.DisplayModeNone,
		NIC:        "user,model=virtio-net-pci,net=192.168.1.0/24",
		ExtraArgs:  []string{"-accel", "kvm"},
		QMPPort:    4444,
		SerialPort: 54321,
	}, cfg.Instance)

	assert.Equal(t, config.Console{
		ConsoleConfig: guest.ConsoleConfig{
			Prompt:      `root@[\w()]+:[^ ]+ `,
			LoginPrompt: guest.DefaultLoginPrompt,
			Username:    "root",
			Timeout:     10 * time.Second,
		},
		Port:        12300,
		Multiplexer: "/usr/sbin/ser2net",
	}, cfg.Console)

	assert.Equal(t, guest.SSHConfig{
		Username: "root",
		Password: "secret",
		Port:     22,
		Timeout:  guest.DefaultTimeout,
	}, cfg.SSH)

	assert.Equal(t, config.Images{
		DiskURL:   "https://example.invalid/openwrt.img.gz",
		Overwrite: true,
	}, cfg.Images)

	assert.Equal(t, config.Timeouts{
		SSH:     45 * time.Second,
		Address: 25 * time.Second,
	}, cfg.Timeouts)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv(config.EnvQMPPort, "5555")
	t.Setenv(config.EnvSerialPort, "6666")

	cfg, err := config.Load("testdata/openwrt.yaml")
	require.NoError(t, err)
	assert.Equal(t, uint16(5555), cfg.Instance.QMPPort)
	assert.Equal(t, uint16(6666), cfg.Instance.SerialPort)
}

func TestLoad_Errors(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()

		path := filepath.Join(t.TempDir(), "env.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		return path
	}

	tests := []struct {
		name        string
		content     string
		errContains string
		expectedErr error
	}{
		{
			name:        "unknown field",
			content:     "instance:\n  machine: pc\n  cores: 4\n",
			errContains: "field cores not found",
		},
		{
			name:        "invalid display",
			content:     "instance:\n  display: sdl\n",
			expectedErr: qemu.ErrDisplayModeInvalid,
		},
		{
			name:        "port collision",
			content:     "console:\n  port: 4444\n",
			expectedErr: config.ErrPortCollision,
		},
		{
			name:        "url without disk",
			content:     "images:\n  disk_url: https://example.invalid/disk.img.gz\n",
			expectedErr: config.ErrDiskNotSet,
		},
		{
			name:        "missing disk",
			content:     "instance:\n  disk: missing.img\n",
			expectedErr: os.ErrNotExist,
		},
		{
			name:        "append in extra args",
			content:     "instance:\n  extra_args: [\"-append\", \"quiet\"]\n",
			expectedErr: &qemu.ArgumentError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(config.EnvQMPPort, "")
			t.Setenv(config.EnvSerialPort, "")

			_, err := config.Load(write(t, tt.content))
			require.Error(t, err)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			}

			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
			}
		})
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecode_Empty(t *testing.T) {
	cfg, err := config.Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, &config.Config{}, cfg)
}

func TestConfig_ApplyEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected [2]uint16
		wantErr  bool
	}{
		{
			name:     "unset",
			expected: [2]uint16{1, 2},
		},
		{
			name:     "qmp only",
			env:      map[string]string{config.EnvQMPPort: "4000"},
			expected: [2]uint16{4000, 2},
		},
		{
			name:    "invalid",
			env:     map[string]string{config.EnvSerialPort: "70000"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{Instance: qemu.InstanceConfig{QMPPort: 1, SerialPort: 2}}

			err := cfg.ApplyEnv(func(name string) (string, bool) {
				value, exists := tt.env[name]
				return value, exists
			})
			if tt.wantErr {
				require.ErrorIs(t, err, &config.EnvError{})
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, [2]uint16{cfg.Instance.QMPPort, cfg.Instance.SerialPort})
		})
	}
}

func TestConfig_External(t *testing.T) {
	cfg, err := config.Decode(strings.NewReader("external: true\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.AddDefaults())
	require.NoError(t, cfg.Validate())
}
