package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFSNotifyWatcher_Creation(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	assert.NoError(t, watcher.Stop())
}

func TestFSNotifyWatcher_ReportsTargetChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")

	watcher, err := NewFSNotifyWatcher(zaptest.NewLogger(t))
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("name: a"), 0o644))

	select {
	case event := <-events:
		assert.Equal(t, ports.FileCreated, event.Operation)
		assert.Equal(t, path, event.Path)
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestFSNotifyWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()

	watcher, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := watcher.Watch(ctx, filepath.Join(dir, "profile.yaml"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("{}"), 0o644))

	select {
	case ev := <-events:
		t.Errorf("unexpected event for sibling file: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFSNotifyWatcher_ReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a"), 0o644))

	watcher, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	for {
		select {
		case event := <-events:
			if event.Operation == ports.FileDeleted {
				return
			}
		case <-ctx.Done():
			t.Fatal("timeout waiting for removal")
		}
	}
}

func TestFSNotifyWatcher_ClosesChannelOnCancel(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	defer watcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := watcher.Watch(ctx, filepath.Join(t.TempDir(), "profile.yaml"))
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestFSNotifyWatcher_MissingDirectory(t *testing.T) {
	watcher, err := NewFSNotifyWatcher(nil)
	require.NoError(t, err)
	defer watcher.Stop()

	_, err = watcher.Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "profile.yaml"))
	assert.Error(t, err)
}
