package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veriface/livecheck/pkg/frame"
	"github.com/veriface/livecheck/pkg/session"
)

var (
	replaySeed int64
	replaySave bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <frames.json>",
	Short: "Feed a recorded frame-metrics file through a liveness session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(args[0])
	},
}

func init() {
	replayCmd.Flags().Int64Var(&replaySeed, "seed", 0, "Challenge selection seed (0 = random)")
	replayCmd.Flags().BoolVar(&replaySave, "save", false, "Persist the session report")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(path string) error {
	frames, err := frame.LoadScript(path)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return errors.New("frame file is empty")
	}

	machineCfg := cfg.MachineConfig()
	if replaySeed != 0 {
		machineCfg.Seed = replaySeed
	}

	m, err := session.NewMachine(machineCfg)
	if err != nil {
		return err
	}

	sess, err := m.StartSession()
	if err != nil {
		return err
	}
	fmt.Printf("Session %s started, replaying %d frames\n", sess.ID, len(frames))
	fmt.Printf("> %s\n", m.CurrentChallenge().Instruction)

	for _, fm := range frames {
		update, err := m.Ingest(fm)
		if err != nil {
			return err
		}
		if update.Event == session.EventPending {
			continue
		}

		r := update.Result
		if r.Success {
			fmt.Printf("  %s passed (confidence %.2f)\n", r.Type, r.Confidence)
		} else {
			fmt.Printf("  %s failed: %s\n", r.Type, session.FailureMessage(r.FailureReason))
		}

		if update.State != session.StateActive {
			break
		}
		fmt.Printf("> %s\n", m.CurrentChallenge().Instruction)
	}

	if m.State() == session.StateActive {
		fmt.Println("Frame file ended before the session resolved")
	}

	summary, _ := m.Summary()
	printSummary(summary, m.State())

	if replaySave {
		return saveReport(summary, m.State())
	}
	return nil
}
