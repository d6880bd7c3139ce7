package history

import (
	"testing"

	"github.com/veriface/livecheck/pkg/frame"
)

func makeFrame(ts int64) frame.Metrics {
	return frame.Metrics{
		FaceDetected: true,
		LeftEyeOpen:  0.9,
		RightEyeOpen: 0.9,
		Timestamp:    ts,
	}
}

func TestNewBuffer_InvalidCapacity(t *testing.T) {
	b := NewBuffer(0)
	if b.Capacity() != DefaultWindow {
		t.Errorf("expected default capacity %d, got %d", DefaultWindow, b.Capacity())
	}
}

func TestBuffer_PushEvictsOldest(t *testing.T) {
	b := NewBuffer(3)

	for i := int64(0); i < 5; i++ {
		b.Push(makeFrame(i * 100))
	}

	if b.Len() != 3 {
		t.Fatalf("expected 3 frames, got %d", b.Len())
	}

	snap := b.Snapshot()
	want := []int64{200, 300, 400}
	for i, ts := range want {
		if snap[i].Timestamp != ts {
			t.Errorf("frame %d: expected timestamp %d, got %d", i, ts, snap[i].Timestamp)
		}
	}
}

func TestBuffer_NeverExceedsCapacity(t *testing.T) {
	b := NewBuffer(10)

	for i := int64(0); i < 100; i++ {
		b.Push(makeFrame(i))
		if b.Len() > 10 {
			t.Fatalf("buffer exceeded capacity at frame %d: len %d", i, b.Len())
		}
	}
}

func TestBuffer_Clear(t *testing.T) {
	b := NewBuffer(5)
	for i := int64(0); i < 5; i++ {
		b.Push(makeFrame(i))
	}

	b.Clear()

	if b.Len() != 0 {
		t.Errorf("expected empty buffer after Clear, got %d frames", b.Len())
	}
	if len(b.Snapshot()) != 0 {
		t.Error("snapshot after Clear should be empty")
	}
}

func TestBuffer_SnapshotIsCopy(t *testing.T) {
	b := NewBuffer(3)
	b.Push(makeFrame(100))
	b.Push(makeFrame(200))

	snap := b.Snapshot()
	b.Push(makeFrame(300))
	b.Push(makeFrame(400))

	if len(snap) != 2 {
		t.Fatalf("snapshot length changed: %d", len(snap))
	}
	if snap[0].Timestamp != 100 || snap[1].Timestamp != 200 {
		t.Error("snapshot contents mutated by later pushes")
	}
}

func TestBuffer_RecordsFacelessFrames(t *testing.T) {
	b := NewBuffer(5)
	b.Push(frame.Metrics{Timestamp: 100})

	if b.Len() != 1 {
		t.Error("frame without a face should still be recorded")
	}
}

func BenchmarkBuffer_Push(b *testing.B) {
	buf := NewBuffer(DefaultWindow)
	fm := makeFrame(0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Push(fm)
	}
}
