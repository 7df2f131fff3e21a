// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/aibor/qemudut/internal/sys"
)

const (
	machineTypeVExpressA9 = "vexpress-a9"
	machineTypePC         = "pc"
	machineTypeQ35        = "q35"
	machineTypeVirt       = "virt"
)

// Default ports of the emulator sockets.
const (
	DefaultQMPPort    uint16 = 4444
	DefaultSerialPort uint16 = 54321
)

// InstanceConfig defines the parameters of a single emulator instance.
type InstanceConfig struct {
	// Path to the qemu-system binary.
	Executable string `yaml:"executable"`

	// QEMU machine type to use. Depends on the QEMU binary used.
	Machine string `yaml:"machine"`

	// CPU type to use. Depends on machine type and QEMU binary used.
	CPU string `yaml:"cpu"`

	// Memory for the machine with unit suffix, like "256M".
	Memory string `yaml:"memory"`

	// Path to the kernel to boot. Boot arguments are only passed if it is
	// set.
	Kernel string `yaml:"kernel"`

	// Path to a disk image. The format is derived from the file extension.
	Disk string `yaml:"disk"`

	// Additional options appended to the disk drive definition.
	DiskOpts string `yaml:"disk_opts"`

	// Path to a raw flash image.
	Flash string `yaml:"flash"`

	// Path to a host directory used as 9p root file system.
	Rootfs string `yaml:"rootfs"`

	// Path to a device tree blob.
	DTB string `yaml:"dtb"`

	// Path to a BIOS image.
	BIOS string `yaml:"bios"`

	// Additional kernel boot arguments. Appended after the ones derived from
	// disk and rootfs.
	BootArgs string `yaml:"boot_args"`

	// Display output of the guest.
	Display DisplayMode `yaml:"display"`

	// Network interface definition passed as is.
	NIC string `yaml:"nic"`

	// ExtraArgs are extra arguments that are passed to the QEMU command.
	// They must not interfere with the essential arguments set by the
	// command itself. Use BootArgs for kernel arguments.
	ExtraArgs []string `yaml:"extra_args"`

	// TCP port of the QMP socket on localhost.
	QMPPort uint16 `yaml:"qmp_port"`

	// TCP port of the serial console socket.
	SerialPort uint16 `yaml:"serial_port"`
}

// AddDefaultsFor adds architecture specific default values to the given
// config if the fields are not set yet.
func (c *InstanceConfig) AddDefaultsFor(arch sys.Arch) error {
	var executable, machine string

	switch arch {
	case sys.AMD64:
		executable = "qemu-system-x86_64"
		machine = machineTypePC
	case sys.ARM64:
		executable = "qemu-system-aarch64"
		machine = machineTypeVirt
	case sys.ARM:
		executable = "qemu-system-arm"
		machine = machineTypeVExpressA9
	case sys.RISCV64:
		executable = "qemu-system-riscv64"
		machine = machineTypeVirt
	default:
		return sys.ErrArchNotSupported
	}

	if c.Executable == "" {
		c.Executable = executable
	}

	if c.Machine == "" {
		c.Machine = machine
	}

	if c.CPU == "" {
		c.CPU = "max"
	}

	if c.Memory == "" {
		c.Memory = "256M"
	}

	if c.Display == "" {
		c.Display = DisplayModeNone
	}

	if c.QMPPort == 0 {
		c.QMPPort = DefaultQMPPort
	}

	if c.SerialPort == 0 {
		c.SerialPort = DefaultSerialPort
	}

	return nil
}

// Validate checks for missing fields and known incompatibilities.
func (c *InstanceConfig) Validate() error {
	required := []struct{ name, value string }{
		{"executable", c.Executable},
		{"machine", c.Machine},
		{"cpu", c.CPU},
		{"memory", c.Memory},
	}

	for _, field := range required {
		if field.value == "" {
			return &ArgumentError{field.name + " not set"}
		}
	}

	if c.Display != "" && !c.Display.isKnown() {
		return &ArgumentError{"unknown display mode: " + string(c.Display)}
	}

	if slices.Contains(c.ExtraArgs, "-append") {
		return &ArgumentError{"-append in extra args not allowed, use boot args"}
	}

	if _, err := ParseArguments(c.ExtraArgs); err != nil {
		return err
	}

	if c.Disk != "" {
		if _, _, err := c.diskArgument(); err != nil {
			return err
		}
	}

	if c.QMPPort == 0 || c.SerialPort == 0 {
		return &ArgumentError{"qmp and serial port must be set"}
	}

	if c.QMPPort == c.SerialPort {
		return &ArgumentError{"qmp and serial port must differ"}
	}

	return nil
}

func (c *InstanceConfig) diskFormat() string {
	if strings.HasSuffix(c.Disk, ".qcow2") {
		return "qcow2"
	}

	return "raw"
}

// diskArgument returns the drive argument and the kernel boot arguments
// needed to boot from the disk.
func (c *InstanceConfig) diskArgument() (Argument, string, error) {
	opts := []string{"format=" + c.diskFormat(), "file=" + c.Disk}

	var (
		iface    string
		bootArgs string
	)

	switch c.Machine {
	case machineTypeVExpressA9:
		iface = "if=sd"
		opts = append(opts, "id=mmc0")
		bootArgs = "root=/dev/mmcblk0p1 rootfstype=ext4 rootwait"
	case machineTypePC, machineTypeQ35, machineTypeVirt:
		iface = "if=virtio"
		bootArgs = "root=/dev/vda rootwait"
	default:
		return Argument{}, "", &UnsupportedMachineError{c.Machine}
	}

	opts = append([]string{iface}, opts...)
	if c.DiskOpts != "" {
		opts = append(opts, c.DiskOpts)
	}

	return RepeatableArg("drive", opts...), bootArgs, nil
}

// BaseArguments compiles the argument list without the QMP and serial socket
// arguments. It can be used for starting an interactive emulator manually.
//
// The version of the emulator decides about the display device used for
// [DisplayModeEGLHeadless]. If nil, the legacy device is used.
func (c *InstanceConfig) BaseArguments(version *semver.Version) ([]Argument, error) {
	var (
		args     []Argument
		bootArgs []string
	)

	if c.Kernel != "" {
		args = append(args, UniqueArg("kernel", c.Kernel))
	}

	if c.Disk != "" {
		drive, diskBootArgs, err := c.diskArgument()
		if err != nil {
			return nil, err
		}

		args = append(args, drive)
		bootArgs = append(bootArgs, diskBootArgs)
	}

	if c.Rootfs != "" {
		args = append(args,
			RepeatableArg("fsdev", "local", "id=rootfs", "security_model=none", "path="+c.Rootfs),
			RepeatableArg("device", "virtio-9p-device", "fsdev=rootfs", "mount_tag=/dev/root"),
		)
		bootArgs = append(bootArgs, "root=/dev/root rootfstype=9p rootflags=trans=virtio")
	}

	if c.DTB != "" {
		args = append(args, UniqueArg("dtb", c.DTB))
	}

	if c.Flash != "" {
		args = append(args, RepeatableArg("drive", "if=pflash", "format=raw", "file="+c.Flash, "id=nor0"))
	}

	if c.BIOS != "" {
		args = append(args, UniqueArg("bios", c.BIOS))
	}

	extraArgs, err := ParseArguments(c.ExtraArgs)
	if err != nil {
		return nil, err
	}

	args = append(args, extraArgs...)
	args = append(args,
		UniqueArg("machine", c.Machine),
		UniqueArg("cpu", c.CPU),
		UniqueArg("m", c.Memory),
	)
	args = append(args, c.Display.arguments(version)...)

	if c.NIC != "" {
		args = append(args, RepeatableArg("nic", c.NIC))
	}

	if c.BootArgs != "" {
		bootArgs = append(bootArgs, c.BootArgs)
	}

	if c.Kernel != "" && len(bootArgs) > 0 {
		args = append(args, UniqueArg("append", strings.Join(bootArgs, " ")))
	}

	return args, nil
}

// Arguments compiles the complete argument list. The guest CPU is frozen at
// startup and must be started by the QMP command "cont".
func (c *InstanceConfig) Arguments(version *semver.Version) ([]Argument, error) {
	args, err := c.BaseArguments(version)
	if err != nil {
		return nil, err
	}

	qmpPort := strconv.FormatUint(uint64(c.QMPPort), 10)
	serialPort := strconv.FormatUint(uint64(c.SerialPort), 10)

	return append(args,
		UniqueArg("S"),
		UniqueArg("qmp", "tcp:localhost:"+qmpPort, "server=on", "wait=off"),
		RepeatableArg("chardev",
			"socket",
			"id=serialsocket",
			"host=0.0.0.0",
			"port="+serialPort,
			"server=on",
			"wait=off",
		),
		RepeatableArg("serial", "chardev:serialsocket"),
	), nil
}

// BuildCommandLine returns the complete command line including the executable.
func BuildCommandLine(cfg InstanceConfig, version *semver.Version) ([]string, error) {
	args, err := cfg.Arguments(version)
	if err != nil {
		return nil, err
	}

	return commandLine(cfg.Executable, args)
}

// BuildBaseCommandLine returns the command line without QMP and serial
// sockets. The guest runs right away and the console is on stdio, which
// suits interactive debugging.
func BuildBaseCommandLine(cfg InstanceConfig, version *semver.Version) ([]string, error) {
	args, err := cfg.BaseArguments(version)
	if err != nil {
		return nil, err
	}

	return commandLine(cfg.Executable, args)
}

func commandLine(executable string, args []Argument) ([]string, error) {
	argStrings, err := BuildArgumentStrings(args)
	if err != nil {
		return nil, err
	}

	return append([]string{executable}, argStrings...), nil
}
