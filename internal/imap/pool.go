package imap

import (
	"log"
	"sync"
	"time"
)

// healthCheckThreshold is the idle time after which we perform a health check before reuse.
const healthCheckThreshold = 1 * time.Minute

// Pool caches one IMAP connection per mail store across sweep passes.
//
// Commands on one store's session are serialized by its mutex.
type Pool struct {
	clients map[string]*storeConn // by store ID
	mu      sync.Mutex
	useTLS  bool
}

// NewPool creates an empty connection pool.
func NewPool(useTLS bool) *Pool {
	return &Pool{
		clients: make(map[string]*storeConn),
		useTLS:  useTLS,
	}
}

// getClient returns a locked, logged-in session for a store and a release
// function that must be called when the caller is done with it.
// A cached session that is logged out or fails a NOOP is replaced.
func (p *Pool) getClient(storeID, server, username, password string) (*storeConn, func(), error) {
	p.mu.Lock()
	conn, exists := p.clients[storeID]
	p.mu.Unlock()

	if exists {
		conn.mu.Lock()
		if conn.alive(healthCheckThreshold) {
			conn.lastUsed = time.Now()
			return conn, conn.mu.Unlock, nil
		}
		conn.mu.Unlock()
		log.Printf("Warning: IMAP connection for store %s is dead, reconnecting", storeID)
		p.RemoveClient(storeID)
	}

	c, err := Dial(server, username, password, p.useTLS)
	if err != nil {
		return nil, nil, err
	}

	conn = &storeConn{client: c, lastUsed: time.Now()}
	conn.mu.Lock()

	p.mu.Lock()
	p.clients[storeID] = conn
	p.mu.Unlock()

	return conn, conn.mu.Unlock, nil
}

// RemoveClient logs out and forgets the session of a store.
func (p *Pool) RemoveClient(storeID string) {
	p.mu.Lock()
	conn, exists := p.clients[storeID]
	delete(p.clients, storeID)
	p.mu.Unlock()

	if exists {
		_ = conn.logout()
	}
}

// Close logs out of every cached session.
func (p *Pool) Close() {
	p.mu.Lock()
	clients := p.clients
	p.clients = make(map[string]*storeConn)
	p.mu.Unlock()

	for storeID, conn := range clients {
		if err := conn.logout(); err != nil {
			log.Printf("Failed to logout connection for store %s: %v", storeID, err)
		}
	}
}

// size returns the number of cached connections.
func (p *Pool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
