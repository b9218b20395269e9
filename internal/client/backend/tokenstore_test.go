package backend

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/core/domain"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	s, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, s)

	want := &domain.Session{
		AccessToken:  "a",
		RefreshToken: "r",
		ExpiresAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		User:         domain.User{ID: "u1", Email: "x@example.com"},
	}
	require.NoError(t, store.Save(want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	got, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreCopies(t *testing.T) {
	store := &MemoryStore{}
	s := &domain.Session{AccessToken: "a", User: domain.User{Metadata: map[string]string{"k": "v"}}}
	require.NoError(t, store.Save(s))

	s.User.Metadata["k"] = "changed"
	got, _ := store.Load()
	assert.Equal(t, "v", got.User.Metadata["k"])
}

func TestKindForStatus(t *testing.T) {
	assert.Equal(t, ErrTransient, KindForStatus(502))
	assert.Equal(t, ErrNotFound, KindForStatus(404))
	assert.Equal(t, ErrBadRequest, KindForStatus(413))
	assert.True(t, IsTransient(&Error{Kind: ErrTransient}))
	assert.False(t, IsTransient(&Error{Kind: ErrConflict}))
}
