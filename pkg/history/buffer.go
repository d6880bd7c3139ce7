// Package history maintains the rolling window of recent frame metrics the
// gesture evaluators read from. A new window starts with every challenge.
package history

import "github.com/veriface/livecheck/pkg/frame"

// DefaultWindow is the default buffer capacity, about three seconds of
// frames at the expected 10 observations/second.
const DefaultWindow = 30

// Buffer is a fixed-capacity FIFO of frame metrics in arrival order.
// It is not safe for concurrent use; ingestion is single-writer.
type Buffer struct {
	capacity int
	frames   []frame.Metrics
}

// NewBuffer creates a buffer holding at most capacity frames.
// A capacity below 1 falls back to DefaultWindow.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultWindow
	}
	return &Buffer{
		capacity: capacity,
		frames:   make([]frame.Metrics, 0, capacity),
	}
}

// Push appends a frame, evicting the oldest when the buffer is full.
// Frames without a detected face are recorded too; evaluators must handle
// detection loss themselves.
func (b *Buffer) Push(m frame.Metrics) {
	if len(b.frames) == b.capacity {
		copy(b.frames, b.frames[1:])
		b.frames = b.frames[:len(b.frames)-1]
	}
	b.frames = append(b.frames, m)
}

// Snapshot returns an ordered copy of the current contents. Readers may
// keep the slice; it is never mutated by later pushes.
func (b *Buffer) Snapshot() []frame.Metrics {
	out := make([]frame.Metrics, len(b.frames))
	copy(out, b.frames)
	return out
}

// Clear empties the buffer. Called when a new challenge starts and on
// session reset so evaluators never see stale frames.
func (b *Buffer) Clear() {
	b.frames = b.frames[:0]
}

// Len returns the number of buffered frames.
func (b *Buffer) Len() int {
	return len(b.frames)
}

// Capacity returns the maximum number of frames the buffer holds.
func (b *Buffer) Capacity() int {
	return b.capacity
}
