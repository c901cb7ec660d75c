package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "okullar.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	var calls atomic.Int32
	fw, err := NewFileWatcher(path, 50*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	fw.Start(context.Background())
	defer fw.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o644))
	}

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "a burst of writes triggers one reload")
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "okullar.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	var calls atomic.Int32
	fw, err := NewFileWatcher(path, 20*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	fw.Start(context.Background())
	defer fw.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notlar.txt"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestFileWatcher_ReloadErrorIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "okullar.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	var calls atomic.Int32
	fw, err := NewFileWatcher(path, 20*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("broken file")
	})
	require.NoError(t, err)
	fw.Start(context.Background())
	defer fw.Stop()

	require.NoError(t, os.WriteFile(path, []byte("b\n"), 0o644))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("c\n"), 0o644))
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewFileWatcher_MissingDirectory(t *testing.T) {
	_, err := NewFileWatcher("/nonexistent/dir/okullar.csv", 0, func(context.Context) error { return nil })
	assert.Error(t, err)
}
