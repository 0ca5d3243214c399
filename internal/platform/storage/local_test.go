package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStoreDeletesByURLPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "photos"), 0o755))
	target := filepath.Join(root, "photos", "red.jpg")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	store, err := NewLocalStore(root)
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "https://cdn.example.com/photos/red.jpg"))
	_, err = os.Stat(target)
	require.True(t, os.IsNotExist(err))
}

func TestLocalStoreIgnoresMissingFile(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "/photos/gone.jpg"))
}

func TestLocalStoreTraversalStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	t.Cleanup(func() { _ = os.Remove(outside) })

	store, err := NewLocalStore(root)
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "/../outside.txt"))
	_, err = os.Stat(outside)
	require.NoError(t, err)
}

func TestNewLocalStoreRequiresRoot(t *testing.T) {
	_, err := NewLocalStore("   ")
	require.Error(t, err)
}
