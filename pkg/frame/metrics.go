// Package frame defines the per-frame biometric observations the liveness
// core consumes. A frame is a set of face metrics, never raw pixels; the
// detector that produces them lives outside this module.
package frame

// Metrics is one timestamped observation of facial metrics.
// Values are produced once by a detector and never mutated afterwards.
type Metrics struct {
	FaceDetected bool    `json:"face_detected"`
	LeftEyeOpen  float64 `json:"left_eye_open"`  // [0,1]
	RightEyeOpen float64 `json:"right_eye_open"` // [0,1]
	Smiling      float64 `json:"smiling"`        // [0,1]
	HeadYaw      float64 `json:"head_yaw"`       // degrees, negative = left
	HeadPitch    float64 `json:"head_pitch"`     // degrees
	HeadRoll     float64 `json:"head_roll"`      // degrees
	FaceArea     float64 `json:"face_area"`      // pixels²
	Timestamp    int64   `json:"timestamp_ms"`   // milliseconds
}

// EyeOpen returns the averaged openness of both eyes.
func (m Metrics) EyeOpen() float64 {
	return (m.LeftEyeOpen + m.RightEyeOpen) / 2.0
}

// Source supplies frames in arrival order. Next returns false when the
// source is exhausted (a live detector never is; replay sources are).
type Source interface {
	Next() (Metrics, bool)
}
