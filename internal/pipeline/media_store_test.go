package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaStore(t *testing.T) {
	dir := t.TempDir()
	store := NewMediaStore(filepath.Join(dir, "media"))

	path, err := store.Store("catalogo marzo.xlsx", []byte("bytes-1"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_catalogo_marzo.xlsx"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes-1"), data)

	// Same content maps to the same file; no duplicate is written.
	again, err := store.Store("catalogo marzo.xlsx", []byte("bytes-1"))
	require.NoError(t, err)
	assert.Equal(t, path, again)

	// Different content gets a new hash prefix even with the same name.
	other, err := store.Store("catalogo marzo.xlsx", []byte("bytes-2"))
	require.NoError(t, err)
	assert.NotEqual(t, path, other)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c.xlsx", sanitizeFilename("a/b:c.xlsx"))
	assert.Equal(t, "catalog.xlsx", sanitizeFilename(""))
	assert.Len(t, sanitizeFilename(strings.Repeat("x", 300)), 120)
}
