package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/veriface/livecheck/pkg/challenge"
	"github.com/veriface/livecheck/pkg/frame"
	"github.com/veriface/livecheck/pkg/report"
	"github.com/veriface/livecheck/pkg/session"
)

var (
	runSeed int64
	runSave bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulated liveness session with scripted cooperative frames",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(runSeed, runSave)
	},
}

func init() {
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Challenge selection seed (0 = random)")
	runCmd.Flags().BoolVar(&runSave, "save", true, "Persist the session report")
	rootCmd.AddCommand(runCmd)
}

// runSimulation drives a full session with synthetic frames that satisfy
// each selected challenge, the way a cooperative subject would.
func runSimulation(seed int64, save bool) error {
	machineCfg := cfg.MachineConfig()
	if seed != 0 {
		machineCfg.Seed = seed
	}

	m, err := session.NewMachine(machineCfg)
	if err != nil {
		return err
	}

	sess, err := m.StartSession()
	if err != nil {
		return err
	}
	fmt.Printf("Session %s started (%d challenges)\n", sess.ID, len(sess.Challenges))

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Liveness check"),
		progressbar.OptionSetWriter(os.Stderr),
	)

	// frame clock, ~10 observations/second
	const stepMs = 100
	ts := time.Now().UnixMilli()

	for m.State() == session.StateActive {
		ch := m.CurrentChallenge()
		fmt.Printf("\n> %s\n", ch.Instruction)

		frames := gestureScript(ch.Type, ts, stepMs)
		ts = frames[len(frames)-1].Timestamp + stepMs

		for _, fm := range frames {
			update, err := m.Ingest(fm)
			if err != nil {
				return err
			}
			_ = bar.Set(int(m.Progress() * 100))

			if update.Event != session.EventPending {
				r := update.Result
				if r.Success {
					fmt.Printf("\n  %s passed (confidence %.2f, %d ms)\n", r.Type, r.Confidence, r.ElapsedMs)
				} else {
					fmt.Printf("\n  %s failed: %s\n", r.Type, session.FailureMessage(r.FailureReason))
				}
				break
			}
		}
	}

	_ = bar.Finish()
	summary, _ := m.Summary()
	printSummary(summary, m.State())

	if save {
		return saveReport(summary, m.State())
	}
	return nil
}

// gestureScript builds a frame sequence that performs the commanded
// gesture after a short neutral calibration lead-in.
func gestureScript(t challenge.Type, startMs, stepMs int64) []frame.Metrics {
	s := frame.NewScript(startMs, stepMs).Neutral(8)
	switch t {
	case challenge.TypeBlink:
		s.EyesClosed(3).Neutral(5)
	case challenge.TypeSmile:
		s.Smiling(12)
	case challenge.TypeTurnLeft:
		s.Yaw(-35, 10)
	case challenge.TypeTurnRight:
		s.Yaw(35, 10)
	case challenge.TypeNod:
		s.Pitch(15, 5).Pitch(-10, 5)
	}
	return s.Frames()
}

func printSummary(sum session.Summary, state session.State) {
	fmt.Println("\nSession summary")
	fmt.Println("===============")
	fmt.Printf("  Session:     %s\n", sum.SessionID)
	fmt.Printf("  State:       %s\n", state)
	fmt.Printf("  Passed:      %d/%d\n", sum.Succeeded, sum.Required)
	fmt.Printf("  Confidence:  %.2f\n", sum.AverageConfidence)
	fmt.Printf("  Duration:    %d ms\n", sum.TotalElapsedMs)
	if sum.OverallSuccess {
		fmt.Println("  Verdict:     LIVE — proceed to selfie capture")
	} else {
		fmt.Println("  Verdict:     NOT VERIFIED — restart the session to retry")
	}
}

func saveReport(sum session.Summary, state session.State) error {
	store, err := report.NewStore(cfg.Reports.DataDir, cfg.Reports.EncryptionEnabled)
	if err != nil {
		return err
	}
	rec := report.Record{
		SessionID:  sum.SessionID,
		RecordedAt: time.Now(),
		FinalState: string(state),
		Summary:    sum,
	}
	if err := store.Save(rec); err != nil {
		return err
	}
	fmt.Printf("\nReport saved: %s\n", sum.SessionID)
	return nil
}
