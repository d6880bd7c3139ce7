// Package challenge defines the liveness challenges and the gesture
// evaluators that decide whether a frame window satisfies them.
package challenge

import (
	"github.com/google/uuid"
)

// Type identifies a challenge gesture.
type Type string

const (
	TypeBlink     Type = "blink"
	TypeSmile     Type = "smile"
	TypeTurnLeft  Type = "turn_left"
	TypeTurnRight Type = "turn_right"
	TypeNod       Type = "nod"
)

// AllTypes lists every supported challenge type.
func AllTypes() []Type {
	return []Type{TypeBlink, TypeSmile, TypeTurnLeft, TypeTurnRight, TypeNod}
}

// instructions holds the user-facing prompt for each challenge type.
var instructions = map[Type]string{
	TypeBlink:     "Blink your eyes",
	TypeSmile:     "Smile",
	TypeTurnLeft:  "Turn your head to the left",
	TypeTurnRight: "Turn your head to the right",
	TypeNod:       "Nod your head up and down",
}

// Instruction returns the display prompt for a challenge type.
func Instruction(t Type) string {
	if s, ok := instructions[t]; ok {
		return s
	}
	return "Follow the on-screen instruction"
}

// Valid reports whether t is a known challenge type.
func (t Type) Valid() bool {
	_, ok := instructions[t]
	return ok
}

// Challenge is one timed instruction the subject must satisfy.
// StartedAt is 0 until the first frame for it is ingested.
type Challenge struct {
	ID          string
	Type        Type
	Instruction string
	DurationMs  int64
	StartedAt   int64 // ms, frame clock
}

// New creates a challenge of the given type with a fresh ID.
func New(t Type, durationMs int64) *Challenge {
	return &Challenge{
		ID:          uuid.NewString(),
		Type:        t,
		Instruction: Instruction(t),
		DurationMs:  durationMs,
	}
}

// Result records the outcome of one completed or failed challenge.
// Results are append-only; exactly one is produced per resolved challenge.
type Result struct {
	ChallengeID   string  `json:"challenge_id"`
	Type          Type    `json:"type"`
	Success       bool    `json:"success"`
	Confidence    float64 `json:"confidence"` // [0,1]
	ElapsedMs     int64   `json:"elapsed_ms"`
	FailureReason string  `json:"failure_reason,omitempty"`
}
