// Package baseline derives a subject-specific resting-state reference from
// the first stable frames of a challenge. Gestures are detected as change
// relative to this reference, not as absolute pose.
package baseline

import "github.com/veriface/livecheck/pkg/frame"

// DefaultMinFrames is the default number of face-detected frames required
// before a baseline is computed.
const DefaultMinFrames = 6

// Baseline is the averaged resting state of the subject.
type Baseline struct {
	EyeOpen float64 // resting eye openness (eye-aspect-ratio proxy)
	Mouth   float64 // resting smile probability (mouth-aspect-ratio proxy)
	Yaw     float64 // degrees
	Pitch   float64 // degrees
	Roll    float64 // degrees
	Frames  int     // number of frames averaged
}

// Calibrator computes a Baseline at most once per challenge.
type Calibrator struct {
	minFrames int
	base      *Baseline
}

// NewCalibrator creates a calibrator requiring minFrames face-detected
// frames. Values below 1 fall back to DefaultMinFrames.
func NewCalibrator(minFrames int) *Calibrator {
	if minFrames < 1 {
		minFrames = DefaultMinFrames
	}
	return &Calibrator{minFrames: minFrames}
}

// Calibrate computes the baseline from a history snapshot. Before enough
// face-detected frames exist it returns ok=false ("not ready"); after the
// first success it returns the stored baseline unchanged regardless of
// later frames.
func (c *Calibrator) Calibrate(frames []frame.Metrics) (Baseline, bool) {
	if c.base != nil {
		return *c.base, true
	}

	var sum Baseline
	for _, m := range frames {
		if !m.FaceDetected {
			continue
		}
		sum.EyeOpen += m.EyeOpen()
		sum.Mouth += m.Smiling
		sum.Yaw += m.HeadYaw
		sum.Pitch += m.HeadPitch
		sum.Roll += m.HeadRoll
		sum.Frames++
	}

	if sum.Frames < c.minFrames {
		return Baseline{}, false
	}

	n := float64(sum.Frames)
	c.base = &Baseline{
		EyeOpen: sum.EyeOpen / n,
		Mouth:   sum.Mouth / n,
		Yaw:     sum.Yaw / n,
		Pitch:   sum.Pitch / n,
		Roll:    sum.Roll / n,
		Frames:  sum.Frames,
	}
	return *c.base, true
}

// Baseline returns the computed baseline, if any.
func (c *Calibrator) Baseline() (Baseline, bool) {
	if c.base == nil {
		return Baseline{}, false
	}
	return *c.base, true
}

// Ready reports whether a baseline has been computed.
func (c *Calibrator) Ready() bool {
	return c.base != nil
}

// Reset discards the baseline. Called when a new challenge starts.
func (c *Calibrator) Reset() {
	c.base = nil
}
