package challenge

import (
	"github.com/veriface/livecheck/pkg/baseline"
	"github.com/veriface/livecheck/pkg/frame"
)

// Status is the verdict an evaluator reaches on a frame window.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusFailure
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "pending"
	}
}

// Input is everything an evaluator may look at. Evaluators are pure
// functions of this input; they hold no per-session state.
type Input struct {
	Frames     []frame.Metrics
	Baseline   baseline.Baseline
	ElapsedMs  int64
	DurationMs int64
}

// Outcome is the evaluator verdict for one ingested frame.
type Outcome struct {
	Status     Status
	Confidence float64 // [0,1], meaningful on success
	Reason     string  // set on failure
}

// Evaluator scores a frame window against one challenge type.
type Evaluator interface {
	Type() Type
	Evaluate(in Input) Outcome
}

// Thresholds holds the tunable signal constants shared by the evaluators.
type Thresholds struct {
	EyeClosed      float64 // eye average at or below this is "closed"
	EyeOpen        float64 // eye average at or above this is "open"
	BlinkMinMs     int64   // shortest natural closed-to-reopen duration
	BlinkMaxMs     int64   // longest natural closed-to-reopen duration
	ClosedRatioMin float64 // natural closed-frame ratio, lower bound
	ClosedRatioMax float64 // natural closed-frame ratio, upper bound

	SmileProb     float64 // per-frame smile probability cutoff
	SmileWindow   int     // recent face frames considered
	SmileFraction float64 // fraction of smiling frames required, exceeded

	YawDegrees        float64 // commanded-direction displacement, exceeded
	YawReverseDegrees float64 // wrong-direction displacement that fails fast
	PitchDegrees      float64 // nod pitch range, exceeded
}

// DefaultThresholds returns the standard gesture thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EyeClosed:      0.3,
		EyeOpen:        0.7,
		BlinkMinMs:     100,
		BlinkMaxMs:     1000,
		ClosedRatioMin: 0.10,
		ClosedRatioMax: 0.40,

		SmileProb:     0.6,
		SmileWindow:   10,
		SmileFraction: 0.6,

		YawDegrees:        30,
		YawReverseDegrees: 15,
		PitchDegrees:      20,
	}
}

// NewEvaluators builds one evaluator per challenge type.
func NewEvaluators(th Thresholds) map[Type]Evaluator {
	return map[Type]Evaluator{
		TypeBlink:     &BlinkEvaluator{Thresholds: th},
		TypeSmile:     &SmileEvaluator{Thresholds: th},
		TypeTurnLeft:  &TurnEvaluator{Thresholds: th, Direction: TurnLeft},
		TypeTurnRight: &TurnEvaluator{Thresholds: th, Direction: TurnRight},
		TypeNod:       &NodEvaluator{Thresholds: th},
	}
}

// faceFrames filters a window down to the frames with a detected face.
// Detection-loss frames contribute no signal to any evaluator.
func faceFrames(frames []frame.Metrics) []frame.Metrics {
	out := make([]frame.Metrics, 0, len(frames))
	for _, m := range frames {
		if m.FaceDetected {
			out = append(out, m)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
