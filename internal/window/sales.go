package window

import (
	"sync"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/model"
)

// SalesWindow is a bounded FIFO buffer of order events.
type SalesWindow struct {
	mu       sync.RWMutex
	buf      []model.SalesEvent
	head     int
	size     int
	capacity int
}

// NewSales builds a sales window with the given capacity.
func NewSales(capacity int) *SalesWindow {
	if capacity <= 0 {
		panic("sales window capacity must be positive")
	}
	return &SalesWindow{
		buf:      make([]model.SalesEvent, capacity),
		capacity: capacity,
	}
}

// Append adds events in order, evicting the oldest when full.
func (w *SalesWindow) Append(events ...model.SalesEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range events {
		tail := (w.head + w.size) % w.capacity
		w.buf[tail] = e
		if w.size < w.capacity {
			w.size++
			continue
		}
		w.head = (w.head + 1) % w.capacity
	}
}

// Snapshot returns the buffered events in append order as a copy.
func (w *SalesWindow) Snapshot() []model.SalesEvent {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]model.SalesEvent, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.head+i)%w.capacity]
	}
	return out
}

// Len reports the number of buffered events.
func (w *SalesWindow) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}

// Cap reports the configured capacity.
func (w *SalesWindow) Cap() int {
	return w.capacity
}
