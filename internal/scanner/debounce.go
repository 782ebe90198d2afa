package scanner

import (
	"sync"
	"time"
)

// Debouncer commits a scanned value only after input has been quiet for
// the configured delay. Barcode scanners type faster than people; every
// keystroke restarts the window so a half-read code never commits.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	gen     uint64
}

func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &Debouncer{delay: delay}
}

// Touch records the latest input and (re)arms the commit window. When the
// window elapses without another Touch, fn runs once with the last value.
// The generation counter keeps a timer that fires concurrently with a
// re-arm from committing: only the latest arming may deliver.
func (d *Debouncer) Touch(value string, fn func(string)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = value
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		v := d.pending
		d.timer = nil
		d.mu.Unlock()
		fn(v)
	})
}

// Cancel drops any pending commit.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = ""
}

// Flush commits a pending value immediately instead of waiting out the
// window. Used when the operator confirms the field by hand.
func (d *Debouncer) Flush(fn func(string)) {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.gen++
	d.timer.Stop()
	d.timer = nil
	v := d.pending
	d.mu.Unlock()
	fn(v)
}
