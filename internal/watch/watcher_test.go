package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := NewWatcher(root, []string{".tex"}, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Start(ctx))
	return w
}

func expectTrigger(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Triggers():
	case <-time.After(5 * time.Second):
		t.Fatal("expected a rebuild trigger")
	}
}

func expectNoTrigger(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Triggers():
		t.Fatal("expected no rebuild trigger")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_TriggersOnSourceChange(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "fig.tex"), []byte("x"), 0644))
	expectTrigger(t, w)
}

func TestWatcher_CoalescesRapidChanges(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "fig.tex"), []byte{byte(i)}, 0644))
	}
	expectTrigger(t, w)
	expectNoTrigger(t, w)
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))
	expectNoTrigger(t, w)
}

func TestResetDebounce_DiscardsStaleTick(t *testing.T) {
	timer := time.NewTimer(time.Millisecond)
	defer timer.Stop()
	// Let the timer fire without consuming the tick.
	time.Sleep(20 * time.Millisecond)

	resetDebounce(timer, 200*time.Millisecond)

	select {
	case <-timer.C:
		t.Fatal("stale tick cut the new debounce window short")
	case <-time.After(100 * time.Millisecond):
	}
	select {
	case <-timer.C:
	case <-time.After(time.Second):
		t.Fatal("timer never fired after reset")
	}
}

func TestWatcher_SeesNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "fig.tex"), []byte("x"), 0644))
	expectTrigger(t, w)
}

func TestWatcher_WatchesExistingSubdirectories(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub", "deep")
	require.NoError(t, os.MkdirAll(sub, 0755))
	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "fig.tex"), []byte("x"), 0644))
	expectTrigger(t, w)
}
