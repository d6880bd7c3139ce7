package session

import (
	"errors"
	"testing"

	"github.com/veriface/livecheck/pkg/challenge"
	"github.com/veriface/livecheck/pkg/frame"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	return cfg
}

func newTestMachine(t *testing.T, types ...challenge.Type) *Machine {
	t.Helper()
	m, err := NewMachine(testConfig())
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if len(types) > 0 {
		if _, err := m.StartSessionWith(types); err != nil {
			t.Fatalf("StartSessionWith: %v", err)
		}
	}
	return m
}

// feed ingests frames until a non-pending update or the sequence ends.
func feed(t *testing.T, m *Machine, frames []frame.Metrics) Update {
	t.Helper()
	var last Update
	for _, fm := range frames {
		update, err := m.Ingest(fm)
		if err != nil {
			t.Fatalf("Ingest: %v", err)
		}
		last = update
		if update.Event != EventPending {
			return update
		}
	}
	return last
}

// blinkScript is the Scenario A sequence: open eyes, a short closed
// stretch, then open again.
func blinkScript(startMs int64) []frame.Metrics {
	return frame.NewScript(startMs, 100).
		Neutral(10).
		EyesClosed(3).
		Neutral(5).
		Frames()
}

func TestMachine_BlinkChallengeSucceeds(t *testing.T) {
	m := newTestMachine(t, challenge.TypeBlink, challenge.TypeSmile)

	update := feed(t, m, blinkScript(1000))

	if update.Event != EventChallengePassed {
		t.Fatalf("expected challenge_passed, got %s", update.Event)
	}
	if update.Result == nil || !update.Result.Success {
		t.Fatal("expected successful result")
	}
	if update.Result.Confidence <= 0 {
		t.Errorf("expected positive confidence, got %f", update.Result.Confidence)
	}
	if m.State() != StateActive {
		t.Errorf("session should continue to the second challenge, state %s", m.State())
	}
	if m.CurrentChallenge().Type != challenge.TypeSmile {
		t.Errorf("expected smile challenge active, got %s", m.CurrentChallenge().Type)
	}
}

func TestMachine_TurnTimesOutWithoutMovement(t *testing.T) {
	m := newTestMachine(t, challenge.TypeTurnLeft, challenge.TypeBlink)

	// Yaw wobbles within ±5° of baseline for longer than the challenge
	// duration.
	frames := frame.NewScript(1000, 100).
		Yaw(5, 45).
		Yaw(-5, 45).
		Frames()

	update := feed(t, m, frames)

	if update.Event != EventChallengeFailed {
		t.Fatalf("expected challenge_failed, got %s", update.Event)
	}
	if update.Result.FailureReason != ReasonTimeout {
		t.Errorf("expected %s, got %s", ReasonTimeout, update.Result.FailureReason)
	}
	if m.State() != StateFailed {
		t.Errorf("session should be failed, state %s", m.State())
	}
}

func TestMachine_FaceLossFailsSecondChallenge(t *testing.T) {
	m := newTestMachine(t, challenge.TypeSmile, challenge.TypeBlink)

	smile := frame.NewScript(1000, 100).
		Neutral(8).
		Smiling(12).
		Frames()
	update := feed(t, m, smile)
	if update.Event != EventChallengePassed {
		t.Fatalf("smile setup failed: %s", update.Event)
	}

	// Over two seconds of frames without a detected face.
	lost := frame.NewScript(4000, 100).FaceLost(25).Frames()
	update = feed(t, m, lost)

	if update.Event != EventChallengeFailed {
		t.Fatalf("expected challenge_failed, got %s", update.Event)
	}
	if update.Result.FailureReason != ReasonFaceLost {
		t.Errorf("expected %s, got %s", ReasonFaceLost, update.Result.FailureReason)
	}
	if m.State() != StateFailed {
		t.Errorf("expected failed state, got %s", m.State())
	}

	sess := m.Session()
	if len(sess.Results) != 2 {
		t.Fatalf("expected 2 results (one success, one failure), got %d", len(sess.Results))
	}
	if !sess.Results[0].Success || sess.Results[1].Success {
		t.Error("expected first result success and second failure")
	}
}

func TestMachine_IngestWithoutSession(t *testing.T) {
	m := newTestMachine(t)

	_, err := m.Ingest(frame.NewScript(1000, 100).Neutral(1).Frames()[0])

	if !errors.Is(err, ErrInvalidSessionState) {
		t.Fatalf("expected ErrInvalidSessionState, got %v", err)
	}
	if m.State() != StateIdle {
		t.Errorf("failed ingest must not change state, got %s", m.State())
	}
	if m.Session() != nil {
		t.Error("failed ingest must not create a session")
	}
}

func TestMachine_DoubleStartSession(t *testing.T) {
	m := newTestMachine(t)

	if _, err := m.StartSession(); err != nil {
		t.Fatalf("first StartSession: %v", err)
	}

	_, err := m.StartSession()
	if !errors.Is(err, ErrInvalidSessionState) {
		t.Fatalf("second StartSession should fail loudly, got %v", err)
	}
	if m.State() != StateActive {
		t.Errorf("failed start must not disturb the active session, state %s", m.State())
	}
}

func TestMachine_RestartAfterTerminalState(t *testing.T) {
	m := newTestMachine(t, challenge.TypeSmile, challenge.TypeBlink)

	lost := frame.NewScript(1000, 100).FaceLost(25).Frames()
	if update := feed(t, m, lost); update.Event != EventChallengeFailed {
		t.Fatalf("setup: expected failure, got %s", update.Event)
	}

	// A failed session is restarted without an explicit Reset.
	if _, err := m.StartSession(); err != nil {
		t.Fatalf("restart from failed state: %v", err)
	}
	if m.State() != StateActive {
		t.Errorf("expected active state after restart, got %s", m.State())
	}
	if len(m.Session().Results) != 0 {
		t.Error("new session must not carry old results")
	}
}

func TestMachine_FullSessionCompletes(t *testing.T) {
	m := newTestMachine(t, challenge.TypeBlink, challenge.TypeNod)

	update := feed(t, m, blinkScript(1000))
	if update.Event != EventChallengePassed {
		t.Fatalf("blink: expected pass, got %s", update.Event)
	}

	nod := frame.NewScript(4000, 100).
		Neutral(8).
		Pitch(15, 5).
		Pitch(-10, 5).
		Frames()
	update = feed(t, m, nod)

	if update.Event != EventChallengePassed {
		t.Fatalf("nod: expected pass, got %s", update.Event)
	}
	if update.State != StateCompleted {
		t.Errorf("expected completed state in update, got %s", update.State)
	}
	if m.State() != StateCompleted {
		t.Errorf("expected completed state, got %s", m.State())
	}

	sum, ok := m.Summary()
	if !ok {
		t.Fatal("expected summary")
	}
	if !sum.OverallSuccess {
		t.Error("expected overall success")
	}
	if sum.Succeeded != 2 || sum.Failed != 0 {
		t.Errorf("expected 2/0, got %d/%d", sum.Succeeded, sum.Failed)
	}
	if sum.AverageConfidence <= 0 {
		t.Errorf("expected positive average confidence, got %f", sum.AverageConfidence)
	}
	if sum.TotalElapsedMs <= 0 {
		t.Errorf("expected positive total elapsed, got %d", sum.TotalElapsedMs)
	}
}

func TestMachine_CurrentIndexMonotonic(t *testing.T) {
	m := newTestMachine(t, challenge.TypeBlink, challenge.TypeNod)

	prev := 0
	check := func() {
		idx := m.Session().CurrentIndex
		if idx < prev {
			t.Fatalf("CurrentIndex decreased: %d -> %d", prev, idx)
		}
		if idx >= len(m.Session().Challenges) {
			t.Fatalf("CurrentIndex %d out of range", idx)
		}
		prev = idx
	}

	script := append(blinkScript(1000),
		frame.NewScript(4000, 100).Neutral(8).Pitch(15, 5).Pitch(-10, 5).Frames()...)
	for _, fm := range script {
		if _, err := m.Ingest(fm); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
		check()
		if m.State() != StateActive {
			break
		}
	}
}

func TestMachine_ProgressIdempotentAndMonotonic(t *testing.T) {
	m := newTestMachine(t, challenge.TypeBlink, challenge.TypeSmile)

	if p := m.Progress(); p != 0 {
		t.Errorf("progress before any frame should be 0, got %f", p)
	}

	prev := 0.0
	for _, fm := range blinkScript(1000) {
		if _, err := m.Ingest(fm); err != nil {
			t.Fatalf("Ingest: %v", err)
		}

		p1 := m.Progress()
		p2 := m.Progress()
		if p1 != p2 {
			t.Fatalf("Progress not idempotent: %f vs %f", p1, p2)
		}
		if p1 < prev {
			t.Fatalf("Progress decreased: %f -> %f", prev, p1)
		}
		if p1 < 0 || p1 > 1 {
			t.Fatalf("Progress out of range: %f", p1)
		}
		prev = p1
	}
}

func TestMachine_Reset(t *testing.T) {
	m := newTestMachine(t, challenge.TypeBlink, challenge.TypeSmile)

	for _, fm := range frame.NewScript(1000, 100).Neutral(5).Frames() {
		if _, err := m.Ingest(fm); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}

	m.Reset()

	if m.State() != StateIdle {
		t.Errorf("expected idle after Reset, got %s", m.State())
	}
	if m.Session() != nil {
		t.Error("expected nil session after Reset")
	}
	if m.Progress() != 0 {
		t.Errorf("expected zero progress after Reset, got %f", m.Progress())
	}
	if _, err := m.Ingest(frame.NewScript(2000, 100).Neutral(1).Frames()[0]); !errors.Is(err, ErrInvalidSessionState) {
		t.Errorf("ingest after Reset should fail, got %v", err)
	}
}

func TestMachine_GestureMismatchFailsFast(t *testing.T) {
	m := newTestMachine(t, challenge.TypeTurnLeft, challenge.TypeBlink)

	// Commanded left, subject turns hard right.
	frames := frame.NewScript(1000, 100).
		Neutral(8).
		Yaw(25, 5).
		Frames()

	update := feed(t, m, frames)

	if update.Event != EventChallengeFailed {
		t.Fatalf("expected challenge_failed, got %s", update.Event)
	}
	if update.Result.FailureReason != ReasonMismatch {
		t.Errorf("expected %s, got %s", ReasonMismatch, update.Result.FailureReason)
	}
	// Failure must have fired well before the challenge timeout.
	if update.Result.ElapsedMs >= 8000 {
		t.Errorf("mismatch should fail fast, elapsed %d ms", update.Result.ElapsedMs)
	}
}

func TestMachine_SeedMakesSelectionDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.Seed = 7

	m1, err := NewMachine(cfg)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := NewMachine(cfg)
	if err != nil {
		t.Fatal(err)
	}

	s1, _ := m1.StartSession()
	s2, _ := m2.StartSession()

	if len(s1.Challenges) != len(s2.Challenges) {
		t.Fatal("challenge counts differ")
	}
	for i := range s1.Challenges {
		if s1.Challenges[i].Type != s2.Challenges[i].Type {
			t.Errorf("challenge %d differs: %s vs %s",
				i, s1.Challenges[i].Type, s2.Challenges[i].Type)
		}
	}
}

func TestMachine_SelectionAvoidsImmediateRepeats(t *testing.T) {
	cfg := testConfig()
	cfg.RequiredChallenges = 8
	cfg.CandidatePool = []challenge.Type{challenge.TypeBlink, challenge.TypeSmile}
	cfg.Seed = 3

	m, err := NewMachine(cfg)
	if err != nil {
		t.Fatal(err)
	}
	sess, err := m.StartSession()
	if err != nil {
		t.Fatal(err)
	}

	if len(sess.Challenges) != 8 {
		t.Fatalf("expected 8 challenges, got %d", len(sess.Challenges))
	}
	for i := 1; i < len(sess.Challenges); i++ {
		if sess.Challenges[i].Type == sess.Challenges[i-1].Type {
			t.Errorf("immediate repeat at %d: %s", i, sess.Challenges[i].Type)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"too few challenges", func(c *Config) { c.RequiredChallenges = 1 }, true},
		{"empty pool", func(c *Config) { c.CandidatePool = nil }, true},
		{"unknown type", func(c *Config) { c.CandidatePool = []challenge.Type{"shake"} }, true},
		{"bad face loss timeout", func(c *Config) { c.FaceLossTimeoutMs = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFailureMessage(t *testing.T) {
	if msg := FailureMessage(ReasonFaceLost); msg != "No face detected" {
		t.Errorf("unexpected message: %s", msg)
	}
	if msg := FailureMessage("SOMETHING_ELSE"); msg != "Liveness check failed" {
		t.Errorf("unexpected fallback message: %s", msg)
	}
}

func BenchmarkMachine_Ingest(b *testing.B) {
	cfg := DefaultConfig()
	cfg.Seed = 42
	m, err := NewMachine(cfg)
	if err != nil {
		b.Fatal(err)
	}
	if _, err := m.StartSessionWith([]challenge.Type{challenge.TypeBlink, challenge.TypeSmile}); err != nil {
		b.Fatal(err)
	}
	frames := frame.NewScript(1000, 100).Neutral(30).Frames()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = m.Ingest(frames[i%len(frames)])
	}
}
