package session

import "github.com/veriface/livecheck/pkg/challenge"

// Summary aggregates the per-challenge results of a session into the
// overall verdict the selfie-capture collaborator gates on.
type Summary struct {
	SessionID         string             `json:"session_id"`
	OverallSuccess    bool               `json:"overall_success"`
	Required          int                `json:"required"`
	Succeeded         int                `json:"succeeded"`
	Failed            int                `json:"failed"`
	AverageConfidence float64            `json:"average_confidence"`
	TotalElapsedMs    int64              `json:"total_elapsed_ms"`
	Results           []challenge.Result `json:"results"`
}

// Summarize combines a session's result list. OverallSuccess requires
// every required challenge to have succeeded and no failed result.
func Summarize(s *Session) Summary {
	sum := Summary{
		SessionID: s.ID,
		Required:  len(s.Challenges),
		Results:   append([]challenge.Result(nil), s.Results...),
	}

	var confidence float64
	for _, r := range s.Results {
		if r.Success {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
		confidence += r.Confidence
	}

	if len(s.Results) > 0 {
		sum.AverageConfidence = confidence / float64(len(s.Results))
	}
	if s.StartedAt > 0 {
		sum.TotalElapsedMs = s.lastFrameTs - s.StartedAt
	}
	sum.OverallSuccess = sum.Succeeded == sum.Required && sum.Failed == 0
	return sum
}

// Summary returns the aggregate for the current session. The second return
// is false while no session exists.
func (m *Machine) Summary() (Summary, bool) {
	if m.sess == nil {
		return Summary{}, false
	}
	return Summarize(m.sess), true
}
