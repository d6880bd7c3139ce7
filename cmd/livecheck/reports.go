package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veriface/livecheck/pkg/report"
	"github.com/veriface/livecheck/pkg/session"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored session reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored session reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		ids, err := store.List()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("No session reports stored.")
			return nil
		}

		fmt.Println("Stored session reports:")
		for _, id := range ids {
			rec, err := store.Load(id)
			if err != nil {
				fmt.Printf("  - %s (unreadable: %v)\n", id, err)
				continue
			}
			verdict := "failed"
			if rec.Summary.OverallSuccess {
				verdict = "passed"
			}
			fmt.Printf("  - %s  %s  %s  %d/%d challenges\n",
				id, rec.RecordedAt.Format("2006-01-02 15:04:05"), verdict,
				rec.Summary.Succeeded, rec.Summary.Required)
		}
		fmt.Printf("\nTotal: %d report(s)\n", len(ids))
		return nil
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		rec, err := store.Load(args[0])
		if err != nil {
			return err
		}

		printSummary(rec.Summary, session.State(rec.FinalState))
		fmt.Printf("\n  Recorded at: %s\n", rec.RecordedAt.Format("2006-01-02 15:04:05"))
		for _, r := range rec.Summary.Results {
			status := "passed"
			if !r.Success {
				status = "failed (" + r.FailureReason + ")"
			}
			fmt.Printf("  - %-10s %-28s %d ms\n", r.Type, status, r.ElapsedMs)
		}
		return nil
	},
}

var reportsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored session reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		removed, err := store.Clear()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d report(s).\n", removed)
		return nil
	},
}

func openStore() (*report.Store, error) {
	return report.NewStore(cfg.Reports.DataDir, cfg.Reports.EncryptionEnabled)
}

func init() {
	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd, reportsClearCmd)
	rootCmd.AddCommand(reportsCmd)
}
