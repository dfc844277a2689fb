package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is how long a burst of file events is allowed to
// settle before the callback fires once.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer coalesces rapid triggers into a single callback after a quiet
// period. Safe for concurrent use.
type Debouncer struct {
	mu    sync.Mutex
	d     time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{d: d}
}

// Duration returns the configured quiet period.
func (db *Debouncer) Duration() time.Duration {
	return db.d
}

// Trigger schedules fn after the quiet period, replacing any pending call.
func (db *Debouncer) Trigger(fn func()) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(db.d, fn)
}

// Cancel drops any pending call.
func (db *Debouncer) Cancel() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}
