// Package config provides configuration management for livecheck.
// It loads configuration from YAML files with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veriface/livecheck/pkg/challenge"
	"github.com/veriface/livecheck/pkg/session"
)

// Config holds all livecheck configuration.
type Config struct {
	Session    SessionConfig    `yaml:"session"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Reports    ReportsConfig    `yaml:"reports"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SessionConfig holds session policy settings.
type SessionConfig struct {
	RequiredChallenges int      `yaml:"required_challenges"`
	CandidatePool      []string `yaml:"candidate_pool"`
	WindowSize         int      `yaml:"window_size"`
	CalibrationFrames  int      `yaml:"calibration_frames"`
	FaceLossTimeoutMs  int64    `yaml:"face_loss_timeout_ms"`
	BlinkDurationMs    int64    `yaml:"blink_duration_ms"`
	SmileDurationMs    int64    `yaml:"smile_duration_ms"`
	TurnDurationMs     int64    `yaml:"turn_duration_ms"`
	NodDurationMs      int64    `yaml:"nod_duration_ms"`
	Seed               int64    `yaml:"seed"`
}

// ThresholdsConfig holds the gesture-evaluator signal constants.
type ThresholdsConfig struct {
	EyeClosed         float64 `yaml:"eye_closed"`
	EyeOpen           float64 `yaml:"eye_open"`
	BlinkMinMs        int64   `yaml:"blink_min_ms"`
	BlinkMaxMs        int64   `yaml:"blink_max_ms"`
	SmileProbability  float64 `yaml:"smile_probability"`
	SmileWindow       int     `yaml:"smile_window"`
	SmileFraction     float64 `yaml:"smile_fraction"`
	YawDegrees        float64 `yaml:"yaw_degrees"`
	YawReverseDegrees float64 `yaml:"yaw_reverse_degrees"`
	PitchDegrees      float64 `yaml:"pitch_degrees"`
}

// ReportsConfig holds session-report storage settings.
type ReportsConfig struct {
	DataDir           string `yaml:"data_dir"`
	EncryptionEnabled bool   `yaml:"encryption_enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	th := challenge.DefaultThresholds()
	return &Config{
		Session: SessionConfig{
			RequiredChallenges: 2,
			CandidatePool:      []string{"blink", "smile", "turn_left", "turn_right", "nod"},
			WindowSize:         30,
			CalibrationFrames:  6,
			FaceLossTimeoutMs:  2000,
			BlinkDurationMs:    7000,
			SmileDurationMs:    7000,
			TurnDurationMs:     8000,
			NodDurationMs:      8000,
		},
		Thresholds: ThresholdsConfig{
			EyeClosed:         th.EyeClosed,
			EyeOpen:           th.EyeOpen,
			BlinkMinMs:        th.BlinkMinMs,
			BlinkMaxMs:        th.BlinkMaxMs,
			SmileProbability:  th.SmileProb,
			SmileWindow:       th.SmileWindow,
			SmileFraction:     th.SmileFraction,
			YawDegrees:        th.YawDegrees,
			YawReverseDegrees: th.YawReverseDegrees,
			PitchDegrees:      th.PitchDegrees,
		},
		Reports: ReportsConfig{
			DataDir:           filepath.Join(homeDir, ".local/share/livecheck"),
			EncryptionEnabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, ".local/share/livecheck/livecheck.log"),
		},
	}
}

// Load loads configuration from the specified file.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return config, err
	}

	return config, nil
}

// LoadDefault tries to load configuration from default locations.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat("/etc/livecheck/livecheck.yaml"); err == nil {
		return Load("/etc/livecheck/livecheck.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfig(), nil
	}

	userConfig := filepath.Join(homeDir, ".config/livecheck/livecheck.yaml")
	if _, err := os.Stat(userConfig); err == nil {
		return Load(userConfig)
	}

	return DefaultConfig(), nil
}

// ExpandPath expands ~ and environment variables in a path.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// ExpandPaths expands all paths in the configuration.
func (c *Config) ExpandPaths() {
	c.Reports.DataDir = ExpandPath(c.Reports.DataDir)
	c.Logging.File = ExpandPath(c.Logging.File)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Session.RequiredChallenges < 2 {
		return fmt.Errorf("required_challenges must be at least 2, got %d", c.Session.RequiredChallenges)
	}
	if len(c.Session.CandidatePool) == 0 {
		return fmt.Errorf("candidate_pool must not be empty")
	}
	for _, name := range c.Session.CandidatePool {
		if !challenge.Type(name).Valid() {
			return fmt.Errorf("unknown challenge type in candidate_pool: %s", name)
		}
	}
	if c.Session.WindowSize < 5 {
		return fmt.Errorf("window_size must be at least 5, got %d", c.Session.WindowSize)
	}
	if c.Session.FaceLossTimeoutMs <= 0 {
		return fmt.Errorf("face_loss_timeout_ms must be positive, got %d", c.Session.FaceLossTimeoutMs)
	}

	if c.Thresholds.EyeClosed < 0 || c.Thresholds.EyeClosed > 1 {
		return fmt.Errorf("eye_closed must be between 0 and 1, got %f", c.Thresholds.EyeClosed)
	}
	if c.Thresholds.EyeOpen < 0 || c.Thresholds.EyeOpen > 1 {
		return fmt.Errorf("eye_open must be between 0 and 1, got %f", c.Thresholds.EyeOpen)
	}
	if c.Thresholds.EyeClosed >= c.Thresholds.EyeOpen {
		return fmt.Errorf("eye_closed (%f) must be below eye_open (%f)", c.Thresholds.EyeClosed, c.Thresholds.EyeOpen)
	}
	if c.Thresholds.BlinkMinMs <= 0 || c.Thresholds.BlinkMaxMs <= c.Thresholds.BlinkMinMs {
		return fmt.Errorf("invalid blink duration range: [%d, %d]", c.Thresholds.BlinkMinMs, c.Thresholds.BlinkMaxMs)
	}
	if c.Thresholds.YawDegrees <= 0 || c.Thresholds.PitchDegrees <= 0 {
		return fmt.Errorf("angular thresholds must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// MachineConfig builds the session-machine config from the loaded file.
func (c *Config) MachineConfig() session.Config {
	pool := make([]challenge.Type, 0, len(c.Session.CandidatePool))
	for _, name := range c.Session.CandidatePool {
		pool = append(pool, challenge.Type(name))
	}

	return session.Config{
		RequiredChallenges: c.Session.RequiredChallenges,
		CandidatePool:      pool,
		WindowSize:         c.Session.WindowSize,
		CalibrationFrames:  c.Session.CalibrationFrames,
		FaceLossTimeoutMs:  c.Session.FaceLossTimeoutMs,
		Durations: map[challenge.Type]int64{
			challenge.TypeBlink:     c.Session.BlinkDurationMs,
			challenge.TypeSmile:     c.Session.SmileDurationMs,
			challenge.TypeTurnLeft:  c.Session.TurnDurationMs,
			challenge.TypeTurnRight: c.Session.TurnDurationMs,
			challenge.TypeNod:       c.Session.NodDurationMs,
		},
		Thresholds: challenge.Thresholds{
			EyeClosed:         c.Thresholds.EyeClosed,
			EyeOpen:           c.Thresholds.EyeOpen,
			BlinkMinMs:        c.Thresholds.BlinkMinMs,
			BlinkMaxMs:        c.Thresholds.BlinkMaxMs,
			ClosedRatioMin:    0.10,
			ClosedRatioMax:    0.40,
			SmileProb:         c.Thresholds.SmileProbability,
			SmileWindow:       c.Thresholds.SmileWindow,
			SmileFraction:     c.Thresholds.SmileFraction,
			YawDegrees:        c.Thresholds.YawDegrees,
			YawReverseDegrees: c.Thresholds.YawReverseDegrees,
			PitchDegrees:      c.Thresholds.PitchDegrees,
		},
		Seed: c.Session.Seed,
	}
}
