package frame

import (
	"encoding/json"
	"fmt"
	"os"
)

// Script builds deterministic synthetic frame sequences. It is used by the
// CLI simulator and by tests; real deployments replace it with a detector
// that implements Source.
type Script struct {
	frames []Metrics
	nextTs int64
	stepMs int64
}

// NewScript creates a script whose frames start at startMs and advance by
// stepMs per frame (100 ms ~ 10 observations/second).
func NewScript(startMs, stepMs int64) *Script {
	return &Script{nextTs: startMs, stepMs: stepMs}
}

// neutral is the resting face every segment starts from.
func neutral(ts int64) Metrics {
	return Metrics{
		FaceDetected: true,
		LeftEyeOpen:  0.9,
		RightEyeOpen: 0.9,
		Smiling:      0.1,
		FaceArea:     12000,
		Timestamp:    ts,
	}
}

func (s *Script) append(n int, mutate func(*Metrics)) *Script {
	for i := 0; i < n; i++ {
		m := neutral(s.nextTs)
		if mutate != nil {
			mutate(&m)
		}
		s.frames = append(s.frames, m)
		s.nextTs += s.stepMs
	}
	return s
}

// Neutral appends n resting frames (face present, eyes open, no smile).
func (s *Script) Neutral(n int) *Script {
	return s.append(n, nil)
}

// EyesClosed appends n frames with both eyes closed.
func (s *Script) EyesClosed(n int) *Script {
	return s.append(n, func(m *Metrics) {
		m.LeftEyeOpen = 0.1
		m.RightEyeOpen = 0.1
	})
}

// Smiling appends n frames with a strong smile signal.
func (s *Script) Smiling(n int) *Script {
	return s.append(n, func(m *Metrics) { m.Smiling = 0.85 })
}

// Yaw appends n frames with the head held at the given yaw angle.
func (s *Script) Yaw(degrees float64, n int) *Script {
	return s.append(n, func(m *Metrics) { m.HeadYaw = degrees })
}

// Pitch appends n frames with the head held at the given pitch angle.
func (s *Script) Pitch(degrees float64, n int) *Script {
	return s.append(n, func(m *Metrics) { m.HeadPitch = degrees })
}

// FaceLost appends n frames where no face was detected.
func (s *Script) FaceLost(n int) *Script {
	return s.append(n, func(m *Metrics) {
		*m = Metrics{Timestamp: m.Timestamp}
	})
}

// At overrides the timestamp cursor so the next frame starts at ts.
func (s *Script) At(ts int64) *Script {
	s.nextTs = ts
	return s
}

// Frames returns the accumulated sequence.
func (s *Script) Frames() []Metrics {
	return s.frames
}

// Source returns a Source that replays the accumulated sequence.
func (s *Script) Source() Source {
	return &sliceSource{frames: s.frames}
}

type sliceSource struct {
	frames []Metrics
	idx    int
}

func (ss *sliceSource) Next() (Metrics, bool) {
	if ss.idx >= len(ss.frames) {
		return Metrics{}, false
	}
	m := ss.frames[ss.idx]
	ss.idx++
	return m, true
}

// NewSliceSource wraps an existing frame sequence as a Source.
func NewSliceSource(frames []Metrics) Source {
	return &sliceSource{frames: frames}
}

// LoadScript reads a recorded frame sequence from a JSON file.
func LoadScript(path string) ([]Metrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame script: %w", err)
	}

	var frames []Metrics
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("failed to parse frame script: %w", err)
	}
	return frames, nil
}

// SaveScript writes a frame sequence to a JSON file.
func SaveScript(path string, frames []Metrics) error {
	data, err := json.MarshalIndent(frames, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal frame script: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write frame script: %w", err)
	}
	return nil
}
