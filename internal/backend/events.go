// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"sync"
)

// EventKind names a session change.
type EventKind string

// Session change kinds.
const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventUserUpdated    EventKind = "USER_UPDATED"
	EventSessionExpired EventKind = "SESSION_EXPIRED"
)

// ChangeEvent is delivered to OnAuthStateChange subscribers. Session is nil
// for SIGNED_OUT and SESSION_EXPIRED; SessionID is always set.
type ChangeEvent struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id"`
	Session   *Session  `json:"session,omitempty"`

	// Remote marks events re-emitted from another instance.
	Remote bool `json:"-"`
}

// Unsubscribe removes a subscription. Calling it more than once is safe.
type Unsubscribe func()

// Bus fans change events out to subscribers.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(ChangeEvent)
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(ChangeEvent))}
}

// Subscribe registers fn and returns its disposer.
func (b *Bus) Subscribe(fn func(ChangeEvent)) Unsubscribe {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber synchronously, outside the lock,
// so subscribers may publish or unsubscribe.
func (b *Bus) Publish(ev ChangeEvent) {
	b.mu.RLock()
	fns := make([]func(ChangeEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
