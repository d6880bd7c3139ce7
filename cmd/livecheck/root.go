package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veriface/livecheck/pkg/config"
	"github.com/veriface/livecheck/pkg/logging"
)

// Version is the application version.
const Version = "0.1.0"

var (
	cfg        *config.Config
	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:     "livecheck",
	Short:   "Liveness challenge engine for identity verification",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configFile != "" {
			cfg, err = config.Load(configFile)
		} else {
			cfg, err = config.LoadDefault()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
			cfg = config.DefaultConfig()
		}
		cfg.ExpandPaths()

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logLevel := cfg.Logging.Level
		if debug {
			logLevel = "debug"
		}
		if err := logging.Init(logLevel, cfg.Logging.File); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not initialize file logging: %v\n", err)
		}

		logging.Debugf("livecheck v%s starting", Version)
		return nil
	},
}

// Execute runs the command tree.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
