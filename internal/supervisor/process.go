// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/aibor/qemudut/internal/pipe"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// process is a started child process.
type process struct {
	name string
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// startProcess starts the given command line. Stdout and stderr are copied
// line-wise into output. If output is nil, they are logged at debug level.
func startProcess(name string, argv []string, output io.Writer) (*process, error) {
	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{
		// The child must not outlive us in any case.
		Pdeathsig: unix.SIGKILL,
		// Own group, so signals reach forked helpers as well.
		Setpgid: true,
	}

	if output == nil {
		output = &pipe.LogWriter{Name: name}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s stdout: %w", name, err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%s stderr: %w", name, err)
	}

	slog.Info("Start process",
		slog.String("name", name),
		slog.String("cmdline", strings.Join(argv, " ")),
	)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	proc := &process{
		name: name,
		cmd:  cmd,
		done: make(chan struct{}),
	}

	var copyGroup errgroup.Group

	copyGroup.Go(func() error {
		return pipe.Copy(name+" stdout", pipe.CopyLines, output, stdout)
	})
	copyGroup.Go(func() error {
		return pipe.Copy(name+" stderr", pipe.CopyLines, output, stderr)
	})

	go func() {
		defer close(proc.done)

		// Pipes must be drained before waiting for the process.
		copyErr := copyGroup.Wait()
		proc.err = errors.Join(cmd.Wait(), copyErr)

		slog.Debug("Process exited",
			slog.String("name", name),
			slog.Any("error", proc.err),
		)
	}()

	return proc, nil
}

// exited returns an error wrapping [ErrProcessExited] if the process is not
// running anymore.
func (p *process) exited() error {
	select {
	case <-p.done:
		return fmt.Errorf("%s: %w: %w", p.name, ErrProcessExited, p.err)
	default:
		return nil
	}
}

// stop terminates the process and waits for it. If it does not exit within
// the grace period, it is killed. An already exited process counts as
// stopped.
func (p *process) stop(gracePeriod time.Duration) {
	if p.signal(unix.SIGTERM) {
		select {
		case <-p.done:
			return
		case <-time.After(gracePeriod):
			slog.Warn("Process did not terminate, kill it",
				slog.String("name", p.name),
				slog.Duration("grace_period", gracePeriod),
			)
		}

		p.signal(unix.SIGKILL)
	}

	<-p.done
}

// signal sends sig to the process group of the process. It returns false if
// the process has already exited.
func (p *process) signal(sig unix.Signal) bool {
	select {
	case <-p.done:
		return false
	default:
	}

	// The child is the leader of its own group, see [startProcess].
	err := unix.Kill(-p.cmd.Process.Pid, sig)
	if err == nil {
		return true
	}

	if !errors.Is(err, unix.ESRCH) {
		slog.Warn("Failed to signal process group",
			slog.String("name", p.name),
			slog.String("signal", sig.String()),
			slog.Any("error", err),
		)
	}

	return false
}
