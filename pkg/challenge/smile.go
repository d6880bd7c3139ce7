package challenge

// SmileEvaluator detects a sustained smile: the fraction of smiling frames
// in the most recent window must exceed the configured fraction.
type SmileEvaluator struct {
	Thresholds Thresholds
}

func (e *SmileEvaluator) Type() Type { return TypeSmile }

func (e *SmileEvaluator) Evaluate(in Input) Outcome {
	th := e.Thresholds
	frames := faceFrames(in.Frames)

	// Wait for a full window of face frames before judging, otherwise a
	// couple of early smiling frames would pass the challenge instantly.
	if len(frames) < th.SmileWindow {
		return Outcome{Status: StatusPending}
	}

	window := frames[len(frames)-th.SmileWindow:]
	smiling := 0
	for _, m := range window {
		if m.Smiling >= th.SmileProb {
			smiling++
		}
	}

	fraction := float64(smiling) / float64(len(window))
	if fraction <= th.SmileFraction {
		return Outcome{Status: StatusPending}
	}

	return Outcome{Status: StatusSuccess, Confidence: clamp01(fraction)}
}
