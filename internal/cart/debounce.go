package cart

import (
	"sync"
	"time"
)

// debouncer coalesces rapid quantity changes per product. Each Schedule call
// restarts that product's timer, so only the state at the moment the window
// finally elapses is flushed. Products debounce independently; there is no
// ordering between flushes of different products.
type debouncer struct {
	window time.Duration

	mu     sync.Mutex
	timers map[int64]*pendingFlush
}

type pendingFlush struct {
	timer *time.Timer
	fn    func()
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window: window,
		timers: make(map[int64]*pendingFlush),
	}
}

// Schedule arms (or re-arms) the flush for a product. It reports whether an
// earlier pending flush was superseded.
func (d *debouncer) Schedule(productID int64, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	coalesced := false
	if existing, ok := d.timers[productID]; ok {
		existing.timer.Stop()
		coalesced = true
	}

	pf := &pendingFlush{fn: fn}
	pf.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		if d.timers[productID] == pf {
			delete(d.timers, productID)
		}
		d.mu.Unlock()
		fn()
	})
	d.timers[productID] = pf
	return coalesced
}

// Cancel drops a product's pending flush without running it.
func (d *debouncer) Cancel(productID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	pf, ok := d.timers[productID]
	if !ok {
		return false
	}
	pf.timer.Stop()
	delete(d.timers, productID)
	return true
}

// Flush runs a product's pending flush immediately instead of waiting out
// the window.
func (d *debouncer) Flush(productID int64) bool {
	d.mu.Lock()
	pf, ok := d.timers[productID]
	if ok {
		pf.timer.Stop()
		delete(d.timers, productID)
	}
	d.mu.Unlock()

	if !ok {
		return false
	}
	pf.fn()
	return true
}

// Stop cancels every pending flush. Used on dispose.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, pf := range d.timers {
		pf.timer.Stop()
		delete(d.timers, id)
	}
}

// Len reports how many products currently have a flush armed.
func (d *debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}
