// Package runtime holds the live-connection state of the relay:
// presence, typing sessions, and event fan-out. It carries no business
// rules; everything here is rebuilt from nothing on restart.
package runtime

import (
	"sync"

	"chat-relay/contract"
)

// Presence maps a user id to its single active connection sink.
// All methods are safe for concurrent use by many connection
// lifecycles; each user's own register/unregister sequence is
// linearized by the gateway goroutine owning that connection.
type Presence struct {
	mu    sync.RWMutex
	sinks map[string]contract.EventSink
}

func NewPresence() *Presence {
	return &Presence{sinks: make(map[string]contract.EventSink)}
}

// Register installs sink as the routing target for userID, replacing
// any prior entry. The previous sink is returned so the caller can
// decide what to do with it; the registry itself never closes handles.
func (p *Presence) Register(userID string, sink contract.EventSink) contract.EventSink {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.sinks[userID]
	p.sinks[userID] = sink
	return prev
}

// Unregister removes the entry for userID only if it still points at
// sink. This guards a stale disconnect against removing a newer
// connection that already replaced it. Reports whether an entry was
// removed.
func (p *Presence) Unregister(userID string, sink contract.EventSink) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current, ok := p.sinks[userID]; ok && current == sink {
		delete(p.sinks, userID)
		return true
	}
	return false
}

func (p *Presence) Lookup(userID string) (contract.EventSink, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sink, ok := p.sinks[userID]
	return sink, ok
}

// Snapshot returns the set of currently registered user ids. Order is
// not significant.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.sinks))
	for id := range p.sinks {
		ids = append(ids, id)
	}
	return ids
}

// Sinks returns every registered connection handle, used for
// whole-population broadcasts like the online-users snapshot.
func (p *Presence) Sinks() []contract.EventSink {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(p.sinks))
	for _, s := range p.sinks {
		sinks = append(sinks, s)
	}
	return sinks
}
