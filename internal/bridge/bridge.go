// Package bridge makes sure the local mail bridge is accepting IMAP connections
// before the inboxes behind it are swept.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os/exec"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotRunning is returned when the bridge is down and there is no command to start it.
	ErrNotRunning = errors.New("mail bridge is not running")
	// ErrLaunchTimeout is returned when the bridge did not come up within the launch wait.
	ErrLaunchTimeout = errors.New("mail bridge did not start in time")
)

const (
	probeTimeout  = 1 * time.Second
	probeInterval = 250 * time.Millisecond
)

// Launcher probes the bridge's listening address and starts it at most once per process.
type Launcher struct {
	address string
	command string
	wait    time.Duration

	mu       sync.Mutex
	launched bool

	dial  func(ctx context.Context, network, address string) (net.Conn, error)
	start func(command string) error
}

// NewLauncher creates a Launcher. An empty address means there is no bridge and
// the stores are always considered reachable.
func NewLauncher(address, command string, wait time.Duration) *Launcher {
	dialer := &net.Dialer{Timeout: probeTimeout}
	return &Launcher{
		address: address,
		command: command,
		wait:    wait,
		dial:    dialer.DialContext,
		start:   startCommand,
	}
}

// Running reports whether the bridge accepts TCP connections.
func (l *Launcher) Running(ctx context.Context) bool {
	if l.address == "" {
		return true
	}

	conn, err := l.dial(ctx, "tcp", l.address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// EnsureRunning starts the bridge if it is down and waits for it. The launch and
// the wait happen once; later calls only probe.
func (l *Launcher) EnsureRunning(ctx context.Context) error {
	if l.Running(ctx) {
		return nil
	}

	if l.command == "" {
		return ErrNotRunning
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.launched {
		if l.Running(ctx) {
			return nil
		}
		return ErrLaunchTimeout
	}
	l.launched = true

	log.Printf("Starting mail bridge: %s", l.command)
	if err := l.start(l.command); err != nil {
		return fmt.Errorf("failed to start mail bridge: %w", err)
	}

	return l.waitUntilRunning(ctx)
}

func (l *Launcher) waitUntilRunning(ctx context.Context) error {
	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			if l.Running(ctx) {
				return nil
			}
			return fmt.Errorf("%w after %s", ErrLaunchTimeout, l.wait)
		case <-ticker.C:
			if l.Running(ctx) {
				log.Printf("Mail bridge is up at %s", l.address)
				return nil
			}
		}
	}
}

// startCommand starts command in the background and reaps it when it exits.
func startCommand(command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}

	cmd := exec.Command(fields[0], fields[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("Warning: Mail bridge exited: %v", err)
		}
	}()
	return nil
}
