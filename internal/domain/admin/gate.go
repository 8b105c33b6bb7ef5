// Package admin holds the shared-secret gate in front of product edits and
// bills history. It is a convenience prompt for a single terminal, not a
// security boundary, and is documented as such.
package admin

import (
	"crypto/subtle"
	"sync"
)

type Gate struct {
	secret string

	mu       sync.Mutex
	unlocked bool
}

func NewGate(secret string) *Gate {
	return &Gate{secret: secret}
}

// Unlock compares the given password to the shared secret; a match unlocks
// the gate for the remainder of the process session.
func (g *Gate) Unlock(password string) bool {
	if subtle.ConstantTimeCompare([]byte(password), []byte(g.secret)) != 1 {
		return false
	}
	g.mu.Lock()
	g.unlocked = true
	g.mu.Unlock()
	return true
}

func (g *Gate) Unlocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.unlocked
}

// Lock re-arms the gate, used when a cashier hands the terminal back.
func (g *Gate) Lock() {
	g.mu.Lock()
	g.unlocked = false
	g.mu.Unlock()
}
