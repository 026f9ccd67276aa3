package bridge

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freeAddress returns a loopback address nothing is listening on.
func freeAddress(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}

func listen(t *testing.T, addr string) net.Listener {
	t.Helper()
	listener, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()
	return listener
}

func TestRunning(t *testing.T) {
	t.Run("no address means no bridge to wait for", func(t *testing.T) {
		assert.True(t, NewLauncher("", "", time.Second).Running(context.Background()))
	})

	t.Run("listening bridge is running", func(t *testing.T) {
		listener := listen(t, "127.0.0.1:0")
		defer listener.Close()

		assert.True(t, NewLauncher(listener.Addr().String(), "", time.Second).Running(context.Background()))
	})

	t.Run("closed port is not running", func(t *testing.T) {
		assert.False(t, NewLauncher(freeAddress(t), "", time.Second).Running(context.Background()))
	})
}

func TestEnsureRunning(t *testing.T) {
	t.Run("already running does not launch", func(t *testing.T) {
		listener := listen(t, "127.0.0.1:0")
		defer listener.Close()

		launcher := NewLauncher(listener.Addr().String(), "bridge --serve", time.Second)
		launcher.start = func(string) error {
			t.Fatal("bridge should not be started")
			return nil
		}

		assert.NoError(t, launcher.EnsureRunning(context.Background()))
	})

	t.Run("down without a command", func(t *testing.T) {
		launcher := NewLauncher(freeAddress(t), "", time.Second)

		err := launcher.EnsureRunning(context.Background())

		assert.ErrorIs(t, err, ErrNotRunning)
	})

	t.Run("launches and waits until listening", func(t *testing.T) {
		addr := freeAddress(t)
		listeners := make(chan net.Listener, 1)
		launches := 0

		launcher := NewLauncher(addr, "bridge --serve", 5*time.Second)
		launcher.start = func(command string) error {
			launches++
			assert.Equal(t, "bridge --serve", command)
			go func() {
				time.Sleep(100 * time.Millisecond)
				listeners <- listen(t, addr)
			}()
			return nil
		}

		require.NoError(t, launcher.EnsureRunning(context.Background()))
		listener := <-listeners
		defer listener.Close()

		require.NoError(t, launcher.EnsureRunning(context.Background()))
		assert.Equal(t, 1, launches)
	})

	t.Run("times out once and does not relaunch", func(t *testing.T) {
		launches := 0
		launcher := NewLauncher(freeAddress(t), "bridge --serve", 50*time.Millisecond)
		launcher.start = func(string) error {
			launches++
			return nil
		}

		start := time.Now()
		err := launcher.EnsureRunning(context.Background())
		assert.ErrorIs(t, err, ErrLaunchTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

		err = launcher.EnsureRunning(context.Background())
		assert.ErrorIs(t, err, ErrLaunchTimeout)
		assert.Equal(t, 1, launches)
	})

	t.Run("start failure", func(t *testing.T) {
		launcher := NewLauncher(freeAddress(t), "bridge", time.Second)
		launcher.start = func(string) error { return errors.New("executable not found") }

		err := launcher.EnsureRunning(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to start mail bridge")
	})

	t.Run("canceled context stops the wait", func(t *testing.T) {
		launcher := NewLauncher(freeAddress(t), "bridge", time.Minute)
		launcher.start = func(string) error { return nil }
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := launcher.EnsureRunning(ctx)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestStartCommandRejectsEmptyCommand(t *testing.T) {
	assert.Error(t, startCommand("  "))
}
