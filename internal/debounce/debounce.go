// Package debounce coalesces rapid successive signals per key, firing the
// trailing edge after a quiet interval.
package debounce

import (
	"sync"
	"time"
)

// DefaultInterval is the quiet interval used when a property declares no
// debounce of its own.
const DefaultInterval = 150 * time.Millisecond

// Debouncer tracks one pending timer per key. Each Do call resets the key's
// timer; the function runs once the interval elapses without another call.
type Debouncer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates an empty debouncer.
func New() *Debouncer {
	return &Debouncer{timers: make(map[string]*time.Timer)}
}

// Do schedules fn to run after the interval, replacing any pending run for
// the same key. An interval of zero or less uses DefaultInterval. fn runs on
// the timer's goroutine.
func (d *Debouncer) Do(key string, interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(interval, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops any pending run for the key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

// Stop cancels every pending run. The debouncer remains usable.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
