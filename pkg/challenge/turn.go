package challenge

// TurnDirection is the commanded side of a head-turn challenge.
type TurnDirection int

const (
	TurnLeft  TurnDirection = iota // yaw decreasing below baseline
	TurnRight                      // yaw increasing above baseline
)

// TurnEvaluator detects a head turn past the yaw threshold in the
// commanded direction. Movement past the reverse threshold in the wrong
// direction fails the challenge immediately rather than letting the
// timeout expire.
type TurnEvaluator struct {
	Thresholds Thresholds
	Direction  TurnDirection
}

func (e *TurnEvaluator) Type() Type {
	if e.Direction == TurnLeft {
		return TypeTurnLeft
	}
	return TypeTurnRight
}

func (e *TurnEvaluator) Evaluate(in Input) Outcome {
	frames := faceFrames(in.Frames)
	if len(frames) == 0 {
		return Outcome{Status: StatusPending}
	}

	minYaw, maxYaw := frames[0].HeadYaw, frames[0].HeadYaw
	for _, m := range frames[1:] {
		if m.HeadYaw < minYaw {
			minYaw = m.HeadYaw
		}
		if m.HeadYaw > maxYaw {
			maxYaw = m.HeadYaw
		}
	}

	th := e.Thresholds
	var commanded, reverse float64
	if e.Direction == TurnLeft {
		commanded = in.Baseline.Yaw - minYaw
		reverse = maxYaw - in.Baseline.Yaw
	} else {
		commanded = maxYaw - in.Baseline.Yaw
		reverse = in.Baseline.Yaw - minYaw
	}

	if reverse > th.YawReverseDegrees {
		return Outcome{
			Status: StatusFailure,
			Reason: "head turned in the wrong direction",
		}
	}

	// Threshold must be exceeded, not met.
	if commanded > th.YawDegrees {
		return Outcome{
			Status:     StatusSuccess,
			Confidence: clamp01(commanded / (th.YawDegrees * 1.5)),
		}
	}

	return Outcome{Status: StatusPending}
}
