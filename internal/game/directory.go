package game

import "sync"

// Directory maps a user to their single active (waiting or in-progress)
// session. It is consulted only at creation time to detect conflicts and is
// kept in memory, with entries removed on every terminal transition, so memory
// stays bounded to active sessions.
type Directory struct {
	mu     sync.RWMutex
	active map[string]string // userID -> sessionID
}

func NewDirectory() *Directory {
	return &Directory{active: make(map[string]string)}
}

// Active returns the session id the user is currently bound to, if any.
func (d *Directory) Active(userID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	sessionID, ok := d.active[userID]
	return sessionID, ok
}

func (d *Directory) Bind(sessionID, hostID, guestID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active[hostID] = sessionID
	d.active[guestID] = sessionID
}

// Unbind removes the users' entries, but only if they still point at the
// given session. A user may already be bound to a newer session.
func (d *Directory) Unbind(sessionID, hostID, guestID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active[hostID] == sessionID {
		delete(d.active, hostID)
	}
	if d.active[guestID] == sessionID {
		delete(d.active, guestID)
	}
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.active)
}
