// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest_test

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/aibor/qemudut/internal/guest"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	results map[string]guest.Result
	err     error
	calls   []string
}

func (r *fakeRunner) Run(_ context.Context, command string) (guest.Result, error) {
	r.calls = append(r.calls, command)

	if r.err != nil {
		return guest.Result{}, r.err
	}

	result, exists := r.results[command]
	if !exists {
		return guest.Result{
			Output:   []string{"sh: not found"},
			ExitCode: 127,
		}, nil
	}

	return result, nil
}

const fakePrompt = "root@OpenWrt:~# "

var fakeCommandRegex = regexp.MustCompile(`^echo '(\w+)''(\w+)'; (.*); echo "\w+""\w+ \$\?"$`)

// fakeShell emulates a serial console with echo enabled.
type fakeShell struct {
	username string
	password string
	commands map[string]guest.Result
	hang     string
}

func startFakeShell(t *testing.T, shell fakeShell) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		conns []net.Conn
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()

			wg.Add(1)

			go func() {
				defer wg.Done()
				shell.serve(conn)
			}()
		}
	}()

	t.Cleanup(func() {
		_ = listener.Close()

		mu.Lock()
		for _, conn := range conns {
			_ = conn.Close()
		}
		mu.Unlock()

		wg.Wait()
	})

	return listener.Addr().String()
}

func (s fakeShell) serve(conn net.Conn) {
	reader := bufio.NewReader(conn)
	loggedIn := s.username == ""
	awaitPassword := false

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		line = strings.TrimRight(line, "\r\n")

		if !awaitPassword {
			fmt.Fprint(conn, line+"\r\n")
		}

		switch {
		case awaitPassword:
			awaitPassword = false

			if line == s.password {
				loggedIn = true
				fmt.Fprint(conn, "\r\n"+fakePrompt)
			} else {
				fmt.Fprint(conn, "Login incorrect\r\nOpenWrt login: ")
			}
		case !loggedIn && line == "":
			fmt.Fprint(conn, "OpenWrt login: ")
		case !loggedIn && line == s.username && s.password != "":
			awaitPassword = true

			fmt.Fprint(conn, "Password: ")
		case !loggedIn && line == s.username:
			loggedIn = true

			fmt.Fprint(conn, fakePrompt)
		case !loggedIn:
			fmt.Fprint(conn, "Login incorrect\r\nOpenWrt login: ")
		case line == "":
			fmt.Fprint(conn, fakePrompt)
		default:
			s.runCommand(conn, line)
		}
	}
}

func (s fakeShell) runCommand(conn net.Conn, line string) {
	match := fakeCommandRegex.FindStringSubmatch(line)
	if match == nil {
		fmt.Fprint(conn, "sh: syntax error\r\n"+fakePrompt)
		return
	}

	marker, command := match[1]+match[2], match[3]

	if command == s.hang {
		return
	}

	result, exists := s.commands[command]
	if !exists {
		result = guest.Result{
			Output:   []string{"/bin/ash: " + command + ": not found"},
			ExitCode: 127,
		}
	}

	fmt.Fprint(conn, marker+"\r\n")

	for _, out := range result.Output {
		fmt.Fprint(conn, out+"\r\n")
	}

	fmt.Fprintf(conn, "%s %d\r\n%s", marker, result.ExitCode, fakePrompt)
}
