package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain/event"
)

// pairKey identifies a typing session by the ordered (from, to) pair.
// A and B typing at each other are two independent sessions.
type pairKey struct {
	from string
	to   string
}

type typingSession struct {
	timer *time.Timer
	gen   uint64
}

// TypingTracker is the per-conversation typing state machine. A pair is
// ACTIVE while it has a session entry; expiry or an explicit stop
// returns it to IDLE.
//
// At most one pending timer exists per pair: a fresh typing signal
// cancels-then-replaces the previous timer under the tracker lock, so
// a stale timer can never fire a spurious stopTyping right after a
// fresh typing signal.
type TypingTracker struct {
	mu        sync.Mutex
	log       *slog.Logger
	publisher contract.IPublisher
	ttl       time.Duration
	sessions  map[pairKey]*typingSession
}

// NewTypingTracker builds a tracker whose sessions expire after ttl
// without a refreshing signal.
func NewTypingTracker(log *slog.Logger, publisher contract.IPublisher, ttl time.Duration) *TypingTracker {
	return &TypingTracker{
		log:       log,
		publisher: publisher,
		ttl:       ttl,
		sessions:  make(map[pairKey]*typingSession),
	}
}

// Typing handles a typing signal from -> to.
//
// IDLE -> ACTIVE delivers a single typing{from} event to the peer and
// arms the expiry timer. A signal on an already ACTIVE pair only
// resets the clock; no further event is delivered, which bounds event
// volume during continuous keystrokes.
func (t *TypingTracker) Typing(ctx context.Context, from, to string) {
	key := pairKey{from: from, to: to}

	t.mu.Lock()
	session, active := t.sessions[key]
	if active {
		session.timer.Stop()
		session.gen++
		session.timer = t.armTimer(key, session.gen)
		t.mu.Unlock()
		return
	}
	session = &typingSession{gen: 1}
	session.timer = t.armTimer(key, session.gen)
	t.sessions[key] = session
	t.mu.Unlock()

	t.publisher.DeliverTo(ctx, to, event.Typing{From: from})
}

// StopTyping handles an explicit stop signal: the timer is cancelled
// and stopTyping{from} is delivered immediately. A stop on an IDLE
// pair is a no-op.
func (t *TypingTracker) StopTyping(ctx context.Context, from, to string) {
	key := pairKey{from: from, to: to}

	t.mu.Lock()
	session, active := t.sessions[key]
	if active {
		session.timer.Stop()
		delete(t.sessions, key)
	}
	t.mu.Unlock()

	if active {
		t.publisher.DeliverTo(ctx, to, event.StopTyping{From: from})
	}
}

// armTimer starts the expiry countdown for key. Callers must hold the
// tracker lock. The generation check inside the callback discards
// timers that were replaced between firing and acquiring the lock.
func (t *TypingTracker) armTimer(key pairKey, gen uint64) *time.Timer {
	return time.AfterFunc(t.ttl, func() {
		t.mu.Lock()
		session, ok := t.sessions[key]
		if !ok || session.gen != gen {
			t.mu.Unlock()
			return
		}
		delete(t.sessions, key)
		t.mu.Unlock()

		t.log.Debug("typing session expired", "from", key.from, "to", key.to)
		t.publisher.DeliverTo(context.Background(), key.to, event.StopTyping{From: key.from})
	})
}
