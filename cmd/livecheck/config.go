package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Current Configuration:")
		fmt.Println("======================")
		fmt.Println()
		fmt.Println("[Session]")
		fmt.Printf("  Required:        %d challenges\n", cfg.Session.RequiredChallenges)
		fmt.Printf("  Pool:            %s\n", strings.Join(cfg.Session.CandidatePool, ", "))
		fmt.Printf("  Window:          %d frames\n", cfg.Session.WindowSize)
		fmt.Printf("  Calibration:     %d frames\n", cfg.Session.CalibrationFrames)
		fmt.Printf("  Face Loss:       %d ms\n", cfg.Session.FaceLossTimeoutMs)
		fmt.Printf("  Durations:       blink %dms, smile %dms, turn %dms, nod %dms\n",
			cfg.Session.BlinkDurationMs, cfg.Session.SmileDurationMs,
			cfg.Session.TurnDurationMs, cfg.Session.NodDurationMs)
		fmt.Println()
		fmt.Println("[Thresholds]")
		fmt.Printf("  Eye Closed/Open: %.2f / %.2f\n", cfg.Thresholds.EyeClosed, cfg.Thresholds.EyeOpen)
		fmt.Printf("  Blink Range:     %d-%d ms\n", cfg.Thresholds.BlinkMinMs, cfg.Thresholds.BlinkMaxMs)
		fmt.Printf("  Smile:           p>=%.2f over %d frames, fraction >%.2f\n",
			cfg.Thresholds.SmileProbability, cfg.Thresholds.SmileWindow, cfg.Thresholds.SmileFraction)
		fmt.Printf("  Yaw:             >%.0f° (reverse fail >%.0f°)\n",
			cfg.Thresholds.YawDegrees, cfg.Thresholds.YawReverseDegrees)
		fmt.Printf("  Pitch:           >%.0f°\n", cfg.Thresholds.PitchDegrees)
		fmt.Println()
		fmt.Println("[Reports]")
		fmt.Printf("  Data Dir:        %s\n", cfg.Reports.DataDir)
		fmt.Printf("  Encryption:      %t\n", cfg.Reports.EncryptionEnabled)
		fmt.Println()
		fmt.Println("[Logging]")
		fmt.Printf("  Level:           %s\n", cfg.Logging.Level)
		fmt.Printf("  File:            %s\n", cfg.Logging.File)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
