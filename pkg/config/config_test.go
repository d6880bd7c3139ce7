package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/veriface/livecheck/pkg/challenge"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Session.RequiredChallenges != 2 {
		t.Errorf("expected 2 required challenges, got %d", cfg.Session.RequiredChallenges)
	}
	if len(cfg.Session.CandidatePool) != 5 {
		t.Errorf("expected full candidate pool, got %d", len(cfg.Session.CandidatePool))
	}
	if cfg.Session.FaceLossTimeoutMs != 2000 {
		t.Errorf("expected 2000 ms face loss timeout, got %d", cfg.Session.FaceLossTimeoutMs)
	}
	if cfg.Thresholds.EyeClosed != 0.3 || cfg.Thresholds.EyeOpen != 0.7 {
		t.Errorf("unexpected eye thresholds: %f / %f", cfg.Thresholds.EyeClosed, cfg.Thresholds.EyeOpen)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected info log level, got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "livecheck.yaml")

	yaml := `
session:
  required_challenges: 3
  candidate_pool: [blink, nod]
  seed: 99
thresholds:
  yaw_degrees: 25
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Session.RequiredChallenges != 3 {
		t.Errorf("expected 3, got %d", cfg.Session.RequiredChallenges)
	}
	if len(cfg.Session.CandidatePool) != 2 {
		t.Errorf("expected overridden pool, got %v", cfg.Session.CandidatePool)
	}
	if cfg.Thresholds.YawDegrees != 25 {
		t.Errorf("expected 25, got %f", cfg.Thresholds.YawDegrees)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug, got %s", cfg.Logging.Level)
	}
	// Untouched values keep defaults.
	if cfg.Thresholds.EyeClosed != 0.3 {
		t.Errorf("expected default eye_closed, got %f", cfg.Thresholds.EyeClosed)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/livecheck.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
	if cfg == nil {
		t.Fatal("expected default config even on error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"one challenge", func(c *Config) { c.Session.RequiredChallenges = 1 }, true},
		{"empty pool", func(c *Config) { c.Session.CandidatePool = nil }, true},
		{"unknown type", func(c *Config) { c.Session.CandidatePool = []string{"brightness"} }, true},
		{"tiny window", func(c *Config) { c.Session.WindowSize = 2 }, true},
		{"zero face loss", func(c *Config) { c.Session.FaceLossTimeoutMs = 0 }, true},
		{"eye thresholds inverted", func(c *Config) { c.Thresholds.EyeClosed = 0.8 }, true},
		{"eye open above 1", func(c *Config) { c.Thresholds.EyeOpen = 1.5 }, true},
		{"bad blink range", func(c *Config) { c.Thresholds.BlinkMaxMs = 50 }, true},
		{"zero yaw", func(c *Config) { c.Thresholds.YawDegrees = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMachineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.CandidatePool = []string{"blink", "turn_left"}
	cfg.Session.Seed = 11

	mc := cfg.MachineConfig()

	if mc.RequiredChallenges != 2 {
		t.Errorf("expected 2, got %d", mc.RequiredChallenges)
	}
	want := []challenge.Type{challenge.TypeBlink, challenge.TypeTurnLeft}
	if len(mc.CandidatePool) != len(want) {
		t.Fatalf("pool size mismatch: %d", len(mc.CandidatePool))
	}
	for i, typ := range want {
		if mc.CandidatePool[i] != typ {
			t.Errorf("pool[%d]: expected %s, got %s", i, typ, mc.CandidatePool[i])
		}
	}
	if mc.Durations[challenge.TypeBlink] != 7000 {
		t.Errorf("expected blink duration 7000, got %d", mc.Durations[challenge.TypeBlink])
	}
	if mc.Thresholds.YawDegrees != 30 {
		t.Errorf("expected yaw threshold 30, got %f", mc.Thresholds.YawDegrees)
	}
	if mc.Seed != 11 {
		t.Errorf("expected seed 11, got %d", mc.Seed)
	}

	if err := mc.Validate(); err != nil {
		t.Errorf("mapped machine config must validate: %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	expanded := ExpandPath("~/data")
	if expanded != filepath.Join(home, "data") {
		t.Errorf("expected %s, got %s", filepath.Join(home, "data"), expanded)
	}
}
