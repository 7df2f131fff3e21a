// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp_test

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/aibor/qemudut/internal/qmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer accepts connections, negotiates and answers each request line
// with the result of the given function. Returning an empty string leaves
// the request unanswered.
func fakeServer(t *testing.T, answer func(request string) string) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var wg sync.WaitGroup

	t.Cleanup(func() {
		_ = listener.Close()

		wg.Wait()
	})

	wg.Add(1)

	go func() {
		defer wg.Done()

		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			wg.Add(1)

			go func() {
				defer wg.Done()
				defer conn.Close()

				serve(conn, answer)
			}()
		}
	}()

	return listener.Addr().String()
}

func serve(conn net.Conn, answer func(string) string) {
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	_, _ = conn.Write([]byte(testGreeting))

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return
	}

	_, _ = conn.Write([]byte(testNegotiated))

	for scanner.Scan() {
		reply := answer(scanner.Text())
		if reply == "" {
			continue
		}

		_, _ = conn.Write([]byte(reply + "\n"))
	}
}

func TestDialer_Execute(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []string
	)

	address := fakeServer(t, func(request string) string {
		mu.Lock()
		defer mu.Unlock()

		requests = append(requests, request)

		return `{"return": "ok"}`
	})

	dialer := qmp.Dialer{Address: address, Timeout: time.Second}

	for range 2 {
		result, err := dialer.Execute(t.Context(), "cont", nil)
		require.NoError(t, err)
		assert.JSONEq(t, `"ok"`, string(result))
	}

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []string{
		`{"execute":"cont","arguments":{}}`,
		`{"execute":"cont","arguments":{}}`,
	}, requests)
}

func TestDialer_Timeout(t *testing.T) {
	address := fakeServer(t, func(string) string {
		return ""
	})

	dialer := qmp.Dialer{Address: address, Timeout: 50 * time.Millisecond}

	_, err := dialer.Execute(t.Context(), "cont", nil)
	require.ErrorIs(t, err, qmp.ErrTimeout)
}

func TestDialer_ContextDeadline(t *testing.T) {
	address := fakeServer(t, func(string) string {
		return ""
	})

	dialer := qmp.Dialer{Address: address, Timeout: time.Minute}

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err := dialer.Execute(ctx, "cont", nil)
	require.ErrorIs(t, err, qmp.ErrTimeout)
}

func TestDialer_Refused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	dialer := qmp.Dialer{Address: address, Timeout: time.Second}

	_, err = dialer.Dial(t.Context())
	require.Error(t, err)
}

func TestClient_HumanMonitorCommand(t *testing.T) {
	address := fakeServer(t, func(string) string {
		return `{"return": ""}`
	})

	client, err := qmp.Dialer{Address: address}.Dial(t.Context())
	require.NoError(t, err)

	defer client.Close()

	assert.Equal(t, "8.1.2", client.Version().String())

	output, err := client.HumanMonitorCommand("hostfwd_remove tcp:127.0.0.1:2222")
	require.NoError(t, err)
	assert.Empty(t, output)
}
