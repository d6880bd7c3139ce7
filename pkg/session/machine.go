// Package session implements the liveness-challenge state machine: it
// selects randomized challenges, routes ingested frames to the baseline
// calibrator and the active gesture evaluator, and decides pass/fail for
// the session as a whole.
package session

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/veriface/livecheck/pkg/baseline"
	"github.com/veriface/livecheck/pkg/challenge"
	"github.com/veriface/livecheck/pkg/frame"
	"github.com/veriface/livecheck/pkg/history"
	"github.com/veriface/livecheck/pkg/logging"
)

// State is the lifecycle state of the machine.
type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// FailureReason codes for session-ending conditions.
const (
	ReasonTimeout  = "CHALLENGE_TIMEOUT"
	ReasonFaceLost = "FACE_NOT_DETECTED"
	ReasonMismatch = "GESTURE_MISMATCH"
)

// ErrInvalidSessionState is returned on caller misuse: ingesting without an
// active session, or starting a session while one is already active.
var ErrInvalidSessionState = errors.New("invalid session state")

// User-friendly failure messages, keyed by reason code.
var failureMessages = map[string]string{
	ReasonTimeout:  "Too slow, please retry",
	ReasonFaceLost: "No face detected",
	ReasonMismatch: "Wrong gesture, please follow the instruction",
}

// FailureMessage returns a user-facing message for a failure reason code.
func FailureMessage(reason string) string {
	if msg, ok := failureMessages[reason]; ok {
		return msg
	}
	return "Liveness check failed"
}

// Event describes what an ingested frame changed.
type Event int

const (
	EventPending Event = iota
	EventChallengePassed
	EventChallengeFailed
)

// String returns the snake_case name of the event.
func (e Event) String() string {
	switch e {
	case EventChallengePassed:
		return "challenge_passed"
	case EventChallengeFailed:
		return "challenge_failed"
	default:
		return "pending"
	}
}

// Update is the result of one Ingest call. Result is set when a challenge
// resolved; State is the machine state after the frame was applied.
type Update struct {
	Event  Event
	Result *challenge.Result
	State  State
}

// Config holds the session policy and evaluator thresholds.
type Config struct {
	RequiredChallenges int
	CandidatePool      []challenge.Type
	WindowSize         int
	CalibrationFrames  int
	FaceLossTimeoutMs  int64
	Durations          map[challenge.Type]int64
	Thresholds         challenge.Thresholds
	Seed               int64 // 0 selects a time-based seed
}

// DefaultConfig returns the standard session policy: two distinct random
// challenges from the full pool, eight-second windows per challenge.
func DefaultConfig() Config {
	return Config{
		RequiredChallenges: 2,
		CandidatePool:      challenge.AllTypes(),
		WindowSize:         history.DefaultWindow,
		CalibrationFrames:  baseline.DefaultMinFrames,
		FaceLossTimeoutMs:  2000,
		Durations: map[challenge.Type]int64{
			challenge.TypeBlink:     7000,
			challenge.TypeSmile:     7000,
			challenge.TypeTurnLeft:  8000,
			challenge.TypeTurnRight: 8000,
			challenge.TypeNod:       8000,
		},
		Thresholds: challenge.DefaultThresholds(),
	}
}

// Validate checks the config for caller mistakes.
func (c Config) Validate() error {
	if c.RequiredChallenges < 2 {
		return fmt.Errorf("required_challenges must be at least 2, got %d", c.RequiredChallenges)
	}
	if len(c.CandidatePool) == 0 {
		return errors.New("candidate pool is empty")
	}
	for _, t := range c.CandidatePool {
		if !t.Valid() {
			return fmt.Errorf("unknown challenge type in pool: %s", t)
		}
	}
	if c.FaceLossTimeoutMs <= 0 {
		return fmt.Errorf("face_loss_timeout_ms must be positive, got %d", c.FaceLossTimeoutMs)
	}
	return nil
}

// duration returns the window for a challenge type, with a fallback for
// types missing from the map.
func (c Config) duration(t challenge.Type) int64 {
	if d, ok := c.Durations[t]; ok && d > 0 {
		return d
	}
	return 8000
}

// Session owns the ordered challenges and results of one attempt.
type Session struct {
	ID           string
	Challenges   []*challenge.Challenge
	Results      []challenge.Result
	CurrentIndex int
	Active       bool
	StartedAt    int64 // ms, frame clock; 0 until the first frame
	lastFrameTs  int64
}

// Machine is the challenge selector and session state machine. It is not
// safe for concurrent use: frames are ingested by a single writer.
type Machine struct {
	cfg     Config
	rng     *rand.Rand
	evals   map[challenge.Type]challenge.Evaluator
	history *history.Buffer
	cal     *baseline.Calibrator
	sess    *Session
	state   State
	// lastFaceAt is the timestamp of the last face-detected frame within
	// the current challenge; 0 while no face has been seen yet.
	lastFaceAt int64
	log        *logrus.Entry
}

// NewMachine creates a machine in the Idle state.
func NewMachine(cfg Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Machine{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		evals:   challenge.NewEvaluators(cfg.Thresholds),
		history: history.NewBuffer(cfg.WindowSize),
		cal:     baseline.NewCalibrator(cfg.CalibrationFrames),
		state:   StateIdle,
		log:     logging.Component("session"),
	}, nil
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	return m.state
}

// Session returns the current session, if any.
func (m *Machine) Session() *Session {
	return m.sess
}

// CurrentChallenge returns the active challenge for display, or nil when
// no session is active.
func (m *Machine) CurrentChallenge() *challenge.Challenge {
	if m.state != StateActive {
		return nil
	}
	return m.sess.Challenges[m.sess.CurrentIndex]
}

// StartSession transitions Idle (or a terminal state) to Active with a
// fresh random challenge sequence. Starting while a session is active is a
// caller bug and returns ErrInvalidSessionState.
func (m *Machine) StartSession() (*Session, error) {
	if m.state == StateActive {
		return nil, fmt.Errorf("session already active: %w", ErrInvalidSessionState)
	}

	return m.startWith(m.selectChallenges())
}

// StartSessionWith starts a session with an explicit challenge sequence
// instead of a random draw. Callers that need a fixed pool (scripted
// replays, kiosk flows) use this; the same state rules as StartSession
// apply.
func (m *Machine) StartSessionWith(types []challenge.Type) (*Session, error) {
	if m.state == StateActive {
		return nil, fmt.Errorf("session already active: %w", ErrInvalidSessionState)
	}
	if len(types) == 0 {
		return nil, errors.New("no challenges given")
	}
	for _, t := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("unknown challenge type: %s", t)
		}
	}
	return m.startWith(types)
}

func (m *Machine) startWith(types []challenge.Type) (*Session, error) {
	sess := &Session{
		ID:         uuid.NewString(),
		Challenges: make([]*challenge.Challenge, 0, len(types)),
		Active:     true,
	}
	for _, t := range types {
		sess.Challenges = append(sess.Challenges, challenge.New(t, m.cfg.duration(t)))
	}

	m.sess = sess
	m.state = StateActive
	m.history.Clear()
	m.cal.Reset()
	m.lastFaceAt = 0

	m.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"challenges": len(sess.Challenges),
		"first":      sess.Challenges[0].Type,
	}).Info("Session started")

	return sess, nil
}

// selectChallenges draws the required number of challenge types at random
// from the candidate pool, never repeating a type back to back.
func (m *Machine) selectChallenges() []challenge.Type {
	pool := make([]challenge.Type, len(m.cfg.CandidatePool))
	copy(pool, m.cfg.CandidatePool)
	m.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	n := m.cfg.RequiredChallenges
	if n <= len(pool) {
		return pool[:n]
	}

	// More challenges than distinct types: keep drawing, redrawing any
	// pick that would immediately repeat.
	out := make([]challenge.Type, 0, n)
	for len(out) < n {
		pick := pool[m.rng.Intn(len(pool))]
		if len(out) > 0 && out[len(out)-1] == pick && len(pool) > 1 {
			continue
		}
		out = append(out, pick)
	}
	return out
}

// Reset forces the machine back to Idle from any state, discarding all
// in-progress data atomically.
func (m *Machine) Reset() {
	m.sess = nil
	m.state = StateIdle
	m.history.Clear()
	m.cal.Reset()
	m.lastFaceAt = 0
}

// Ingest applies one frame to the active session. It is synchronous and
// never blocks; all timing compares frame timestamps. Calling Ingest
// without an active session returns ErrInvalidSessionState and mutates
// nothing.
func (m *Machine) Ingest(fm frame.Metrics) (Update, error) {
	if m.state != StateActive {
		return Update{State: m.state}, fmt.Errorf("ingest with no active session: %w", ErrInvalidSessionState)
	}

	sess := m.sess
	ch := sess.Challenges[sess.CurrentIndex]
	if ch.StartedAt == 0 {
		ch.StartedAt = fm.Timestamp
	}
	if sess.StartedAt == 0 {
		sess.StartedAt = fm.Timestamp
	}
	sess.lastFrameTs = fm.Timestamp

	m.history.Push(fm)
	if fm.FaceDetected {
		m.lastFaceAt = fm.Timestamp
	}

	elapsed := fm.Timestamp - ch.StartedAt

	// Prolonged face loss fails the challenge before its timeout would.
	lastSeen := ch.StartedAt
	if m.lastFaceAt > lastSeen {
		lastSeen = m.lastFaceAt
	}
	if !fm.FaceDetected && fm.Timestamp-lastSeen > m.cfg.FaceLossTimeoutMs {
		return m.failChallenge(ch, elapsed, ReasonFaceLost), nil
	}

	base, ok := m.cal.Calibrate(m.history.Snapshot())
	if !ok {
		// Waiting for a face; the challenge clock still runs.
		if elapsed >= ch.DurationMs {
			return m.failChallenge(ch, elapsed, ReasonTimeout), nil
		}
		return Update{Event: EventPending, State: m.state}, nil
	}

	out := m.evals[ch.Type].Evaluate(challenge.Input{
		Frames:     m.history.Snapshot(),
		Baseline:   base,
		ElapsedMs:  elapsed,
		DurationMs: ch.DurationMs,
	})

	switch out.Status {
	case challenge.StatusSuccess:
		return m.passChallenge(ch, elapsed, out.Confidence), nil
	case challenge.StatusFailure:
		return m.failChallenge(ch, elapsed, ReasonMismatch), nil
	default:
		if elapsed >= ch.DurationMs {
			return m.failChallenge(ch, elapsed, ReasonTimeout), nil
		}
		return Update{Event: EventPending, State: m.state}, nil
	}
}

// passChallenge records a success and advances to the next challenge or
// the Completed state.
func (m *Machine) passChallenge(ch *challenge.Challenge, elapsed int64, confidence float64) Update {
	result := challenge.Result{
		ChallengeID: ch.ID,
		Type:        ch.Type,
		Success:     true,
		Confidence:  confidence,
		ElapsedMs:   elapsed,
	}
	m.sess.Results = append(m.sess.Results, result)

	m.log.WithFields(logrus.Fields{
		"session_id": m.sess.ID,
		"type":       ch.Type,
		"confidence": fmt.Sprintf("%.2f", confidence),
		"elapsed_ms": elapsed,
	}).Info("Challenge passed")

	if m.sess.CurrentIndex+1 < len(m.sess.Challenges) {
		m.sess.CurrentIndex++
		m.history.Clear()
		m.cal.Reset()
		m.lastFaceAt = 0
	} else {
		m.state = StateCompleted
		m.sess.Active = false
		m.log.WithField("session_id", m.sess.ID).Info("Session completed")
	}

	return Update{Event: EventChallengePassed, Result: &result, State: m.state}
}

// failChallenge records a failure and ends the session. A single failed or
// timed-out challenge fails the whole attempt; retry means a new session.
func (m *Machine) failChallenge(ch *challenge.Challenge, elapsed int64, reason string) Update {
	result := challenge.Result{
		ChallengeID:   ch.ID,
		Type:          ch.Type,
		Success:       false,
		ElapsedMs:     elapsed,
		FailureReason: reason,
	}
	m.sess.Results = append(m.sess.Results, result)
	m.state = StateFailed
	m.sess.Active = false

	m.log.WithFields(logrus.Fields{
		"session_id": m.sess.ID,
		"type":       ch.Type,
		"reason":     reason,
		"elapsed_ms": elapsed,
	}).Warn("Challenge failed, session ended")

	return Update{Event: EventChallengeFailed, Result: &result, State: m.state}
}

// Progress returns a monotonic [0,1] value for UI display: the maximum of
// the elapsed-time ratio within the current challenge and the
// challenges-completed ratio. It is idempotent between ingests.
func (m *Machine) Progress() float64 {
	switch m.state {
	case StateIdle:
		return 0
	case StateCompleted:
		return 1
	}

	sess := m.sess
	total := float64(len(sess.Challenges))
	completed := float64(len(sess.Results)) / total

	if m.state == StateFailed {
		if completed > 1 {
			return 1
		}
		return completed
	}

	ch := sess.Challenges[sess.CurrentIndex]
	var elapsedRatio float64
	if ch.StartedAt > 0 && ch.DurationMs > 0 {
		elapsedRatio = float64(sess.lastFrameTs-ch.StartedAt) / float64(ch.DurationMs)
	}

	p := completed
	if elapsedRatio > p {
		p = elapsedRatio
	}
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	return p
}
