// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"errors"
	"math/rand/v2"

	"github.com/olegiv/randomweb/internal/backend"
)

// ErrNoWebsites is returned when picking from an empty list.
var ErrNoWebsites = errors.New("no websites available")

// Source draws integers in [0, n).
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource draws from the process-wide math/rand/v2 generator.
var DefaultSource Source = globalSource{}

// Picker selects one website uniformly at random. Every call is an
// independent draw; repeats are allowed.
type Picker struct {
	src Source
}

// NewPicker returns a Picker drawing from src, or DefaultSource when nil.
func NewPicker(src Source) *Picker {
	if src == nil {
		src = DefaultSource
	}
	return &Picker{src: src}
}

// Pick returns a website from list.
func (p *Picker) Pick(list []backend.Website) (backend.Website, error) {
	if len(list) == 0 {
		return backend.Website{}, ErrNoWebsites
	}
	return list[p.src.IntN(len(list))], nil
}

// FixedSource always returns the same index, clamped to the range.
type FixedSource int

// IntN returns int(f) when it is in [0, n), otherwise n-1 or 0.
func (f FixedSource) IntN(n int) int {
	i := int(f)
	if i >= n {
		return n - 1
	}
	if i < 0 {
		return 0
	}
	return i
}
