// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Console defaults.
const (
	DefaultPrompt      = `root@[\w()-]+:[^ ]+ `
	DefaultLoginPrompt = `login: `
	DefaultUsername    = "root"
	DefaultTimeout     = 30 * time.Second
)

var passwordPromptRegex = regexp.MustCompile(`(?i)password:\s*`)

// ConsoleConfig configures a [Console].
type ConsoleConfig struct {
	// Prompt is a regular expression matching the shell prompt.
	Prompt string `yaml:"prompt"`
	// LoginPrompt is a regular expression matching the login prompt.
	LoginPrompt string `yaml:"login_prompt"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	// Timeout bounds each wait for console output.
	Timeout time.Duration `yaml:"timeout"`
}

// AddDefaults sets defaults for all unset fields.
func (c *ConsoleConfig) AddDefaults() {
	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}

	if c.LoginPrompt == "" {
		c.LoginPrompt = DefaultLoginPrompt
	}

	if c.Username == "" {
		c.Username = DefaultUsername
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Console is a shell driver on a TCP attached serial console.
//
// Commands are framed by random markers so the exit code can be read back
// from the output stream.
type Console struct {
	address  string
	cfg      ConsoleConfig
	prompt   *regexp.Regexp
	greeting *regexp.Regexp

	conn net.Conn
	buf  []byte
}

// NewConsole returns a new [Console] for the given TCP address. Unset
// config fields are defaulted.
func NewConsole(address string, cfg ConsoleConfig) (*Console, error) {
	cfg.AddDefaults()

	prompt, err := regexp.Compile(cfg.Prompt)
	if err != nil {
		return nil, fmt.Errorf("prompt: %w", err)
	}

	greeting, err := regexp.Compile("(" + cfg.Prompt + ")|(" + cfg.LoginPrompt + ")")
	if err != nil {
		return nil, fmt.Errorf("login prompt: %w", err)
	}

	return &Console{
		address:  address,
		cfg:      cfg,
		prompt:   prompt,
		greeting: greeting,
	}, nil
}

// Active returns true if the console is connected.
func (c *Console) Active() bool {
	return c.conn != nil
}

// Activate connects to the console and waits for a shell prompt. If a login
// prompt shows up instead, it logs in. It is a no-op if already active.
func (c *Console) Activate(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return fmt.Errorf("connect console: %w", err)
	}

	c.conn = conn
	c.buf = nil

	if err := c.login(ctx); err != nil {
		_ = c.Deactivate()
		return err
	}

	slog.Debug("Console active", slog.String("address", c.address))

	return nil
}

func (c *Console) login(ctx context.Context) error {
	if err := c.writeLine(""); err != nil {
		return err
	}

	groups, err := c.expect(ctx, c.greeting)
	if err != nil {
		return fmt.Errorf("wait for prompt: %w", err)
	}

	if groups[1] != "" {
		return nil
	}

	slog.Debug("Console login", slog.String("username", c.cfg.Username))

	if err := c.writeLine(c.cfg.Username); err != nil {
		return err
	}

	if c.cfg.Password != "" {
		if _, err := c.expect(ctx, passwordPromptRegex); err != nil {
			return fmt.Errorf("wait for password prompt: %w", err)
		}

		if err := c.writeLine(c.cfg.Password); err != nil {
			return err
		}
	}

	if _, err := c.expect(ctx, c.prompt); err != nil {
		return fmt.Errorf("wait for prompt after login: %w", err)
	}

	return nil
}

// Deactivate closes the console connection. It is a no-op if not active.
func (c *Console) Deactivate() error {
	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	c.buf = nil

	if err != nil {
		return fmt.Errorf("close console: %w", err)
	}

	return nil
}

// Run implements [Runner].
func (c *Console) Run(ctx context.Context, command string) (Result, error) {
	if c.conn == nil {
		return Result{}, ErrNotActive
	}

	marker := strings.ReplaceAll(uuid.NewString(), "-", "")
	head, tail := marker[:8], marker[8:]

	// The marker is split by quotes, so the echoed command line never
	// contains it literally.
	line := fmt.Sprintf(`echo '%s''%s'; %s; echo "%s""%s $?"`, head, tail, command, head, tail)
	if err := c.writeLine(line); err != nil {
		return Result{}, err
	}

	frame := regexp.MustCompile(marker + `\r?\n((?s:.*?))` + marker + ` (\d+)\r?\n`)

	groups, err := c.expect(ctx, frame)
	if err != nil {
		return Result{}, fmt.Errorf("wait for command: %w", err)
	}

	exitCode, err := strconv.Atoi(groups[2])
	if err != nil {
		return Result{}, fmt.Errorf("parse exit code: %w", err)
	}

	if _, err := c.expect(ctx, c.prompt); err != nil {
		return Result{}, fmt.Errorf("wait for prompt: %w", err)
	}

	return Result{
		Output:   splitLines(groups[1]),
		ExitCode: exitCode,
	}, nil
}

func (c *Console) writeLine(line string) error {
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("write console: %w", err)
	}

	return nil
}

// expect reads from the console until re matches the buffered output. It
// returns the submatches and drops everything up to the end of the match.
func (c *Console) expect(ctx context.Context, re *regexp.Regexp) ([]string, error) {
	chunk := make([]byte, 4096)

	for {
		if loc := re.FindSubmatchIndex(c.buf); loc != nil {
			groups := make([]string, len(loc)/2)
			for idx := range groups {
				if loc[2*idx] >= 0 {
					groups[idx] = string(c.buf[loc[2*idx]:loc[2*idx+1]])
				}
			}

			c.buf = append([]byte(nil), c.buf[loc[1]:]...)

			return groups, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err //nolint:wrapcheck
		}

		deadline := time.Now().Add(c.cfg.Timeout)
		if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}

		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}

		n, err := c.conn.Read(chunk)
		c.buf = append(c.buf, chunk[:n]...)

		switch {
		case err == nil:
		case errors.Is(err, os.ErrDeadlineExceeded):
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr //nolint:wrapcheck
			}

			return nil, fmt.Errorf("%w: expected %q", ErrConsoleTimeout, re.String())
		default:
			return nil, fmt.Errorf("read console: %w", err)
		}
	}
}
