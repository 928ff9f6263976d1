// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHomeHandler_SanitizesCopy(t *testing.T) {
	h, err := NewHomeHandler(nil, []byte("# Hi\n\n<script>alert(1)</script>\n\n[link](https://example.org)"))
	require.NoError(t, err)

	got := string(h.content)
	assert.Contains(t, got, "<h1>Hi</h1>")
	assert.Contains(t, got, `href="https://example.org"`)
	assert.NotContains(t, got, "<script>")
}
