package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32

	// Trigger rapidly 10 times
	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	// Wait for debounce to complete
	time.Sleep(100 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool

	d.Trigger(func() {
		called.Store(true)
	})

	// Cancel before debounce completes
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func TestWatcher_DetectsProfileDBChange(t *testing.T) {
	tmpDir := t.TempDir()
	dbFile := filepath.Join(tmpDir, "profiles.sqlite3")

	if err := os.WriteFile(dbFile, []byte("initial"), 0644); err != nil {
		t.Fatal(err)
	}

	var (
		changeMu sync.Mutex
		changed  bool
	)

	w, err := New(dbFile,
		WithDebounceDuration(50*time.Millisecond),
		WithOnChange(func() {
			changeMu.Lock()
			changed = true
			changeMu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Give watcher time to initialize
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(dbFile, []byte("modified content"), 0644); err != nil {
		t.Fatal(err)
	}

	// Wait for change detection
	time.Sleep(300 * time.Millisecond)

	changeMu.Lock()
	wasChanged := changed
	changeMu.Unlock()

	if !wasChanged {
		t.Error("expected change to be detected")
	}
}

func TestWatcher_WALSidecarCountsAsChange(t *testing.T) {
	tmpDir := t.TempDir()
	dbFile := filepath.Join(tmpDir, "profiles.sqlite3")

	if err := os.WriteFile(dbFile, []byte("db"), 0644); err != nil {
		t.Fatal(err)
	}

	var changed atomic.Bool
	w, err := New(dbFile,
		WithDebounceDuration(50*time.Millisecond),
		WithOnChange(func() { changed.Store(true) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if w.IsPolling() {
		t.Skip("fsnotify unavailable; sidecar events not observable in polling mode")
	}

	time.Sleep(100 * time.Millisecond)

	// A WAL-mode commit touches the sidecar, not the database file.
	if err := os.WriteFile(dbFile+"-wal", []byte("frames"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	if !changed.Load() {
		t.Error("expected wal write to be detected")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	tmpDir := t.TempDir()
	dbFile := filepath.Join(tmpDir, "profiles.sqlite3")

	if err := os.WriteFile(dbFile, []byte("db"), 0644); err != nil {
		t.Fatal(err)
	}

	var changed atomic.Bool
	w, err := New(dbFile,
		WithDebounceDuration(50*time.Millisecond),
		WithOnChange(func() { changed.Store(true) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(tmpDir, "unrelated.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	if changed.Load() {
		t.Error("unrelated file should not trigger a change")
	}
}

func TestWatcher_PollingFallback(t *testing.T) {
	tmpDir := t.TempDir()
	dbFile := filepath.Join(tmpDir, "profiles.sqlite3")

	if err := os.WriteFile(dbFile, []byte("initial"), 0644); err != nil {
		t.Fatal(err)
	}

	var changed atomic.Bool
	w, err := New(dbFile,
		WithForcePoll(true),
		WithPollInterval(50*time.Millisecond),
		WithDebounceDuration(30*time.Millisecond),
		WithOnChange(func() { changed.Store(true) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected polling mode")
	}

	time.Sleep(80 * time.Millisecond)

	if err := os.WriteFile(dbFile, []byte("more bytes than before"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	if !changed.Load() {
		t.Error("expected polling to detect the change")
	}
}

func TestWatcher_StartTwiceFails(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "profiles.sqlite3")
	if err := os.WriteFile(dbFile, []byte("db"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := New(dbFile)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestWatcher_ChangedChannel(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "profiles.sqlite3")
	if err := os.WriteFile(dbFile, []byte("db"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := New(dbFile, WithDebounceDuration(30*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(dbFile, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changed():
	case <-time.After(2 * time.Second):
		t.Error("no signal on Changed channel")
	}
}
