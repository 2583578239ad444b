// Package debounce delays a lookup until its input has been quiet for a fixed
// period and fences results by generation so only the newest call may win.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultDelay is the quiet period used when none is configured.
const DefaultDelay = 500 * time.Millisecond

var (
	// ErrSuperseded is returned by a call whose wait was cancelled because a
	// newer call arrived before the quiet period elapsed.
	ErrSuperseded = errors.New("debounce: superseded by a newer call")
	// ErrStale is returned by a call whose work completed after a newer call
	// had started. Its result is discarded.
	ErrStale = errors.New("debounce: result outdated")
)

// Debouncer serialises rapidly repeated lookups of type T.
type Debouncer[T any] struct {
	delay time.Duration

	mu      sync.Mutex
	gen     uint64
	pending chan struct{}
}

// New returns a Debouncer with the given quiet period.
func New[T any](delay time.Duration) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{delay: delay}
}

// Do waits for the quiet period and then runs fn, unless another call
// arrives first. Only the result of the newest generation is returned.
func (d *Debouncer[T]) Do(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	gen, cancelled := d.begin()

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		d.release(cancelled)
		return zero, ctx.Err()
	case <-cancelled:
		return zero, ErrSuperseded
	case <-timer.C:
	}

	d.mu.Lock()
	if d.gen != gen {
		d.mu.Unlock()
		return zero, ErrSuperseded
	}
	if d.pending == cancelled {
		d.pending = nil
	}
	d.mu.Unlock()

	value, err := fn(ctx)
	if !d.IsCurrent(gen) {
		return zero, ErrStale
	}
	return value, err
}

// Cancel supersedes any waiting call and invalidates in-flight results.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.pending != nil {
		close(d.pending)
		d.pending = nil
	}
}

// Generation reports the number of calls started so far.
func (d *Debouncer[T]) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// IsCurrent reports whether gen is still the newest generation.
func (d *Debouncer[T]) IsCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen == gen
}

func (d *Debouncer[T]) begin() (uint64, chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		close(d.pending)
	}
	d.gen++
	d.pending = make(chan struct{})
	return d.gen, d.pending
}

func (d *Debouncer[T]) release(ch chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == ch {
		d.pending = nil
	}
}
