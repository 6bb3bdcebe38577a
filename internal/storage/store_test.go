package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates nested directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b")
		store, err := NewLocalStore(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, store.uploadDir)

		st, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, st.IsDir())
	})
}

func TestLocalStore_SaveAndOpen(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("report.pdf", "application/pdf", strings.NewReader("%PDF-1.7 body"))
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "report.pdf", info.Name)
	assert.Equal(t, "application/pdf", info.ContentType)
	assert.Equal(t, int64(13), info.Size)

	rc, err := store.Open(info.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 body", string(body))
}

func TestLocalStore_NotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Open("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(store.Delete("missing"), ErrNotFound))
}

func TestLocalStore_Delete(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("a.pdf", "application/pdf", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(info.ID))

	_, err = os.Stat(filepath.Join(store.uploadDir, info.ID))
	assert.True(t, os.IsNotExist(err))
	_, err = store.Open(info.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_PruneOlderThan(t *testing.T) {
	store := createTestStore(t)

	old, err := store.Save("old.pdf", "application/pdf", strings.NewReader("o"))
	require.NoError(t, err)
	fresh, err := store.Save("fresh.pdf", "application/pdf", strings.NewReader("f"))
	require.NoError(t, err)
	old.UploadedAt = time.Now().Add(-2 * time.Hour)

	removed := store.PruneOlderThan(time.Now().Add(-time.Hour))
	assert.Equal(t, 1, removed)

	_, err = store.Open(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	rc, err := store.Open(fresh.ID)
	require.NoError(t, err)
	rc.Close()
}
