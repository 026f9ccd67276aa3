// Package imap connects to registered mail stores and exposes their inboxes to the sweep.
package imap

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	// Decodes non-UTF-8 header charsets in server responses.
	_ "github.com/emersion/go-message/charset"
)

// dialTimeout bounds the TCP connect to a mail store or local bridge.
const dialTimeout = 5 * time.Second

// storeConn is the cached session of one mail store. mu serializes commands on it;
// client and lastUsed are only touched while mu is held.
type storeConn struct {
	mu       sync.Mutex
	client   *client.Client
	lastUsed time.Time
}

// alive reports whether the session can still run commands. Sessions idle for
// longer than idleCheck must also answer a NOOP.
func (sc *storeConn) alive(idleCheck time.Duration) bool {
	state := sc.client.State()
	if state != imap.AuthenticatedState && state != imap.SelectedState {
		return false
	}
	if time.Since(sc.lastUsed) <= idleCheck {
		return true
	}
	return sc.client.Noop() == nil
}

// logout ends the session.
func (sc *storeConn) logout() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.client.Logout()
}

// Dial opens an authenticated session. useTLS is false for local bridges and test servers.
func Dial(address, username, password string, useTLS bool) (*client.Client, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}

	var (
		c   *client.Client
		err error
	)
	if useTLS {
		c, err = client.DialWithDialerTLS(dialer, address, nil)
	} else {
		c, err = client.DialWithDialer(dialer, address)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	if err := c.Login(username, password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to authenticate as %s: %w", username, err)
	}

	return c, nil
}
