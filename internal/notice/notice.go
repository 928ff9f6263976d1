// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notice carries transient user-facing notifications (toasts)
// across the redirect that follows a form submission.
package notice

import (
	"context"
	"encoding/gob"
	"sync"

	"github.com/alexedwards/scs/v2"
)

// Variant is the visual style of a notice.
type Variant string

// Notice variants.
const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is a titled message with an optional description.
type Notice struct {
	Variant     Variant
	Title       string
	Description string
}

// Success returns a default notice.
func Success(title, description string) Notice {
	return Notice{Variant: VariantDefault, Title: title, Description: description}
}

// Failure returns a destructive notice.
func Failure(title, description string) Notice {
	return Notice{Variant: VariantDestructive, Title: title, Description: description}
}

// IsDestructive reports whether n is an error notice.
func (n Notice) IsDestructive() bool {
	return n.Variant == VariantDestructive
}

// Notifier delivers notices to the current user.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// DefaultKey is the session key notices are queued under.
const DefaultKey = "notices"

func init() {
	gob.Register([]Notice{})
}

// SessionNotifier queues notices in the browser session until the next
// rendered page pops them.
type SessionNotifier struct {
	sm  *scs.SessionManager
	key string
}

// NewSessionNotifier returns a SessionNotifier storing under key, or
// DefaultKey when key is empty.
func NewSessionNotifier(sm *scs.SessionManager, key string) *SessionNotifier {
	if key == "" {
		key = DefaultKey
	}
	return &SessionNotifier{sm: sm, key: key}
}

// Notify appends n to the queue. ctx must carry a loaded session.
func (s *SessionNotifier) Notify(ctx context.Context, n Notice) {
	queued, _ := s.sm.Get(ctx, s.key).([]Notice)
	queued = append(queued, n)
	s.sm.Put(ctx, s.key, queued)
}

// Pop removes and returns every queued notice.
func (s *SessionNotifier) Pop(ctx context.Context) []Notice {
	queued, _ := s.sm.Pop(ctx, s.key).([]Notice)
	return queued
}

// Recorder collects notices in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records n.
func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Reset drops recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.notices = nil
	r.mu.Unlock()
}
