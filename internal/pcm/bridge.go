// Package pcm provides the latest-value sample buffer connecting the
// streaming goroutine to visualization consumers.
package pcm

import "sync"

// DefaultCapacity is the size of the mono sample window shared with
// visualization consumers.
const DefaultCapacity = 4096

// Bridge is a single-slot mono sample buffer. Each Write overwrites the
// previous window; readers get a defensive copy. There is no history and no
// back-pressure: a slow consumer sees duplicate or skipped frames, never
// an error.
type Bridge struct {
	mu  sync.Mutex
	buf []float64
}

// NewBridge creates a Bridge with the given capacity. A capacity of zero or
// less falls back to DefaultCapacity.
func NewBridge(capacity int) *Bridge {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bridge{buf: make([]float64, capacity)}
}

// Capacity returns the fixed window size.
func (b *Bridge) Capacity() int {
	return len(b.buf)
}

// Write replaces the buffer content with chunk. Shorter chunks are
// right-padded with silence; longer chunks are truncated. Only the copy
// happens inside the critical section.
func (b *Bridge) Write(chunk []float64) {
	b.mu.Lock()
	n := copy(b.buf, chunk)
	for i := n; i < len(b.buf); i++ {
		b.buf[i] = 0
	}
	b.mu.Unlock()
}

// Read returns a copy of the current window.
func (b *Bridge) Read() []float64 {
	out := make([]float64, len(b.buf))
	b.mu.Lock()
	copy(out, b.buf)
	b.mu.Unlock()
	return out
}

// Reset zeroes the buffer, so consumers render silence instead of a stale
// frame after playback stops.
func (b *Bridge) Reset() {
	b.mu.Lock()
	for i := range b.buf {
		b.buf[i] = 0
	}
	b.mu.Unlock()
}
