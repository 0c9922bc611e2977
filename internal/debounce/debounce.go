// Package debounce delays value propagation until input goes quiet.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period used when the caller does not pick one.
const DefaultDelay = 300 * time.Millisecond

// Debouncer holds at most one scheduled value. Each Set cancels the
// pending emission and reschedules with the new value, so only the final
// value after a quiet period reaches the sink.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	emit    func(T)
	gen     uint64
	stopped bool
}

func New[T any](delay time.Duration) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{delay: delay}
}

// Notify sets the sink that receives settled values. The sink runs on the
// timer goroutine while the debouncer's lock is held, so it must not call
// back into the debouncer.
func (d *Debouncer[T]) Notify(emit func(T)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emit = emit
}

// Set schedules v for emission after the quiet period, replacing any
// value still waiting.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(gen, v)
	})
}

// Stop cancels any pending emission. Nothing fires after Stop returns.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// fire emits under the lock: a timer callback that lost the race against
// Stop (or a newer Set) sees a changed generation and drops its value,
// and a callback that wins blocks Stop until the emission is done.
func (d *Debouncer[T]) fire(gen uint64, v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || gen != d.gen || d.emit == nil {
		return
	}
	d.emit(v)
}
