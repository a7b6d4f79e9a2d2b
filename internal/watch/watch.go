// Package watch implements a single-producer, multi-observer latch with
// "seen" semantics, modeled on Rust's tokio::sync::watch. No library in the
// example corpus offers this primitive for Go, so it is built directly on
// the standard library's sync and channel primitives (see DESIGN.md).
//
// A value is published with Send. Each Receiver independently tracks
// whether it has observed the latest published value, and can wait for a
// fresh one without missing updates that occur between waits.
package watch

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by HasChanged once the watch's sender side has
// closed, so callers that need a three-way changed/unchanged/error result
// (rather than Closed() observed separately) can get it from one call.
var ErrClosed = errors.New("watch closed")

// Watch holds the latest published value of type T and notifies
// subscribed receivers when a new value arrives.
type Watch[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	closed  bool
	notify  chan struct{}
}

// New creates a Watch seeded with an initial value.
func New[T any](initial T) *Watch[T] {
	return &Watch[T]{value: initial, notify: make(chan struct{})}
}

// Send publishes a new value, waking every receiver currently waiting on
// Changed or a snapshot from WaitChan.
func (w *Watch[T]) Send(v T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.value = v
	w.version++
	close(w.notify)
	w.notify = make(chan struct{})
}

// Close marks the watch as closed; all current and future receivers
// observe Closed() == true. Mirrors dropping every tokio::watch::Sender.
func (w *Watch[T]) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.notify)
	w.notify = make(chan struct{})
}

// Subscribe returns a new Receiver whose "seen" marker starts at the
// watch's current version, so its first Changed/HasChanged reports no
// change until the next Send.
func (w *Watch[T]) Subscribe() *Receiver[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &Receiver[T]{w: w, seenVersion: w.version}
}

// Receiver observes a Watch, tracking which published version it has last
// acknowledged via BorrowAndUpdate.
type Receiver[T any] struct {
	w           *Watch[T]
	seenVersion uint64
}

// Borrow returns the latest published value without marking it as seen.
func (r *Receiver[T]) Borrow() T {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	return r.w.value
}

// BorrowAndUpdate returns the latest published value and marks it seen, so
// a subsequent HasChanged/Changed reports no change until another Send.
func (r *Receiver[T]) BorrowAndUpdate() T {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	r.seenVersion = r.w.version
	return r.w.value
}

// HasChanged reports whether a value has been published since this
// receiver last called BorrowAndUpdate, without blocking or marking it
// seen. It returns ErrClosed once the watch's sender side has closed, so
// callers needing a three-way changed/unchanged/error result don't need a
// separate Closed() check.
func (r *Receiver[T]) HasChanged() (bool, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	if r.w.closed {
		return false, ErrClosed
	}
	return r.w.version != r.seenVersion, nil
}

// Closed reports whether the watch's sender side has been closed.
func (r *Receiver[T]) Closed() bool {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	return r.w.closed
}

// Changed blocks until a new value is published, the watch is closed, or
// ctx is cancelled. It does not mark the value as seen; callers that want
// the "seen" side effect call BorrowAndUpdate explicitly once downstream
// processing succeeds (see the derivation package's use of this pattern).
func (r *Receiver[T]) Changed(ctx context.Context) error {
	for {
		r.w.mu.Lock()
		if r.w.version != r.seenVersion || r.w.closed {
			ch := r.w.notify
			r.w.mu.Unlock()
			_ = ch
			return nil
		}
		ch := r.w.notify
		r.w.mu.Unlock()
		select {
		case <-ch:
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WaitChan returns a channel that becomes readable once a new value has
// been published (or the watch closed) since the last BorrowAndUpdate.
// Intended for use as a case in a select statement; callers must re-fetch
// WaitChan on each loop iteration, since the returned channel is replaced
// on every Send.
func (r *Receiver[T]) WaitChan() <-chan struct{} {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	if r.w.version != r.seenVersion || r.w.closed {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return r.w.notify
}
