package challenge

// NodEvaluator detects a nod: the pitch range across the window must
// exceed the configured threshold. Either direction may come first, so no
// reverse-movement failure applies.
type NodEvaluator struct {
	Thresholds Thresholds
}

func (e *NodEvaluator) Type() Type { return TypeNod }

func (e *NodEvaluator) Evaluate(in Input) Outcome {
	frames := faceFrames(in.Frames)
	if len(frames) == 0 {
		return Outcome{Status: StatusPending}
	}

	minPitch, maxPitch := frames[0].HeadPitch, frames[0].HeadPitch
	for _, m := range frames[1:] {
		if m.HeadPitch < minPitch {
			minPitch = m.HeadPitch
		}
		if m.HeadPitch > maxPitch {
			maxPitch = m.HeadPitch
		}
	}

	th := e.Thresholds
	spread := maxPitch - minPitch
	if spread > th.PitchDegrees {
		return Outcome{
			Status:     StatusSuccess,
			Confidence: clamp01(spread / (th.PitchDegrees * 1.5)),
		}
	}

	return Outcome{Status: StatusPending}
}
