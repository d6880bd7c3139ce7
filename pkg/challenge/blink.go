package challenge

import "github.com/veriface/livecheck/pkg/frame"

// eyeState classifies a frame's averaged eye openness.
type eyeState int

const (
	eyeAmbiguous eyeState = iota
	eyeOpen
	eyeClosed
)

// BlinkEvaluator detects a natural blink: an open→closed→open cycle whose
// closed-to-reopen duration falls within the natural blink range. Cycles
// outside the range are rejected as non-human or stuck detection.
type BlinkEvaluator struct {
	Thresholds Thresholds
}

func (e *BlinkEvaluator) Type() Type { return TypeBlink }

func (e *BlinkEvaluator) Evaluate(in Input) Outcome {
	frames := faceFrames(in.Frames)
	if len(frames) < 3 {
		return Outcome{Status: StatusPending}
	}

	th := e.Thresholds
	cycles, closedFrames, judged := e.scanCycles(frames)

	if cycles == 0 {
		return Outcome{Status: StatusPending}
	}

	confidence := 0.6 + 0.2*float64(cycles-1)
	if judged > 0 {
		ratio := float64(closedFrames) / float64(judged)
		if ratio >= th.ClosedRatioMin && ratio <= th.ClosedRatioMax {
			confidence += 0.2
		}
	}

	return Outcome{Status: StatusSuccess, Confidence: clamp01(confidence)}
}

// scanCycles walks the non-ambiguous eye states in the window and counts
// open→closed→open cycles whose closed duration is within
// [BlinkMinMs, BlinkMaxMs]. Both endpoints are inclusive.
func (e *BlinkEvaluator) scanCycles(frames []frame.Metrics) (cycles, closedFrames, judged int) {
	th := e.Thresholds

	var (
		prev        = eyeAmbiguous
		closedStart int64
		sawOpen     bool
	)

	for _, m := range frames {
		state := e.classify(m.EyeOpen())
		if state == eyeAmbiguous {
			continue
		}
		judged++
		if state == eyeClosed {
			closedFrames++
		}

		switch {
		case state == eyeOpen && prev == eyeClosed:
			// Reopened: the cycle is complete if it started from open.
			if sawOpen {
				duration := m.Timestamp - closedStart
				if duration >= th.BlinkMinMs && duration <= th.BlinkMaxMs {
					cycles++
				}
			}
			sawOpen = true
		case state == eyeOpen:
			sawOpen = true
		case state == eyeClosed && prev == eyeOpen:
			closedStart = m.Timestamp
		}
		prev = state
	}
	return cycles, closedFrames, judged
}

func (e *BlinkEvaluator) classify(eyeAvg float64) eyeState {
	switch {
	case eyeAvg <= e.Thresholds.EyeClosed:
		return eyeClosed
	case eyeAvg >= e.Thresholds.EyeOpen:
		return eyeOpen
	default:
		return eyeAmbiguous
	}
}
