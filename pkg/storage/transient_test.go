package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go-form-mailer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *TransientStore {
	t.Helper()
	store, err := NewTransientStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return store
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestTransientStore_StoreReadRelease(t *testing.T) {
	store := newStore(t)

	file, err := store.Store(context.Background(), strings.NewReader("%PDF-1.7 resume"), "cv.pdf", "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "cv.pdf", file.OriginalName)
	assert.Equal(t, "application/pdf", file.MIMEType)
	assert.Equal(t, int64(15), file.SizeBytes)
	assert.True(t, strings.HasSuffix(file.StoragePath, "-cv.pdf"))
	assert.Equal(t, store.Dir(), filepath.Dir(file.StoragePath))

	data, err := store.Read(file)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 resume", string(data))

	require.NoError(t, store.Release(file))
	assert.Empty(t, listDir(t, store.Dir()))

	_, err = store.Read(file)
	assert.ErrorIs(t, err, ErrFileReleased)
}

func TestTransientStore_RecreatesMissingDir(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.RemoveAll(store.Dir()))

	file, err := store.Store(context.Background(), strings.NewReader("x"), "a.pdf", "application/pdf")
	require.NoError(t, err)
	assert.FileExists(t, file.StoragePath)
	require.NoError(t, store.Release(file))
}

func TestTransientStore_ReleaseIsIdempotent(t *testing.T) {
	store := newStore(t)

	file, err := store.Store(context.Background(), strings.NewReader("one"), "same.pdf", "application/pdf")
	require.NoError(t, err)
	other, err := store.Store(context.Background(), strings.NewReader("two"), "same.pdf", "application/pdf")
	require.NoError(t, err)

	require.NoError(t, store.Release(file))
	require.NoError(t, store.Release(file))
	require.NoError(t, store.Release(nil))

	// the second upload with the same original name is untouched
	assert.FileExists(t, other.StoragePath)
	require.NoError(t, store.Release(other))
}

func TestTransientStore_ReleaseRefusesForeignPaths(t *testing.T) {
	store := newStore(t)

	outside := filepath.Join(t.TempDir(), "keep.pdf")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o600))

	err := store.Release(&domain.UploadedFile{StoragePath: outside})
	assert.ErrorIs(t, err, ErrOutsideScratchDir)
	assert.FileExists(t, outside)

	traversal := filepath.Join(store.Dir(), "..", "keep.pdf")
	assert.ErrorIs(t, store.Release(&domain.UploadedFile{StoragePath: traversal}), ErrOutsideScratchDir)
}

func TestTransientStore_StripsDirectoriesFromName(t *testing.T) {
	store := newStore(t)

	file, err := store.Store(context.Background(), strings.NewReader("x"), `..\..\evil/../../cv.docx`, "application/msword")
	require.NoError(t, err)
	defer store.Release(file)

	assert.Equal(t, store.Dir(), filepath.Dir(file.StoragePath))
	assert.True(t, strings.HasSuffix(file.StoragePath, "-cv.docx"))
	assert.Equal(t, `..\..\evil/../../cv.docx`, file.OriginalName)
}

func TestTransientStore_CancelledContextLeavesNothing(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Store(ctx, bytes.NewReader(make([]byte, 1024)), "cv.pdf", "application/pdf")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, listDir(t, store.Dir()))
}

func TestTransientStore_ConcurrentStoresNeverCollide(t *testing.T) {
	store := newStore(t)
	const n = 32

	var wg sync.WaitGroup
	paths := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			file, err := store.Store(context.Background(), strings.NewReader(fmt.Sprintf("resume-%d", i)), "resume.pdf", "application/pdf")
			if !assert.NoError(t, err) {
				return
			}
			data, err := store.Read(file)
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("resume-%d", i), string(data))
			paths <- file.StoragePath
		}(i)
	}
	wg.Wait()
	close(paths)

	seen := map[string]bool{}
	for p := range paths {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
	assert.Len(t, seen, n)
	assert.Len(t, listDir(t, store.Dir()), n)
}

func TestTransientStore_Sweep(t *testing.T) {
	store := newStore(t)

	stale, err := store.Store(context.Background(), strings.NewReader("old"), "old.pdf", "application/pdf")
	require.NoError(t, err)
	fresh, err := store.Store(context.Background(), strings.NewReader("new"), "new.pdf", "application/pdf")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale.StoragePath, past, past))

	removed, err := store.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, stale.StoragePath)
	assert.FileExists(t, fresh.StoragePath)
}
