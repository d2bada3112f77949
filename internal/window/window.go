package window

import (
	"sync"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/model"
)

// Window is a bounded FIFO buffer of activity samples. One producer appends;
// readers take snapshots. Oldest samples are evicted once capacity is reached.
type Window struct {
	mu       sync.RWMutex
	buf      []model.Sample
	head     int
	size     int
	capacity int
}

// New builds a sample window with the given capacity.
func New(capacity int) *Window {
	if capacity <= 0 {
		panic("window capacity must be positive")
	}
	return &Window{
		buf:      make([]model.Sample, capacity),
		capacity: capacity,
	}
}

// Append adds a sample, evicting the oldest when full.
func (w *Window) Append(s model.Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()

	tail := (w.head + w.size) % w.capacity
	w.buf[tail] = s
	if w.size < w.capacity {
		w.size++
		return
	}
	w.head = (w.head + 1) % w.capacity
}

// Snapshot returns the buffered samples in append order. The returned slice
// is a copy; the window never mutates it afterwards.
func (w *Window) Snapshot() []model.Sample {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]model.Sample, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.head+i)%w.capacity]
	}
	return out
}

// Len reports the number of buffered samples.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}

// Cap reports the configured capacity.
func (w *Window) Cap() int {
	return w.capacity
}
