package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsDerived(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if want := cfg.Agent.TurnRate * cfg.Physics.DT; cfg.Derived.TurnStep != want {
		t.Errorf("TurnStep = %v, want %v", cfg.Derived.TurnStep, want)
	}
	if want := cfg.Field.Plants * cfg.Field.FlowersPerPlant; cfg.Derived.TotalFlowers != want {
		t.Errorf("TotalFlowers = %d, want %d", cfg.Derived.TotalFlowers, want)
	}
	if cfg.Derived.TicksPerSec != 50 {
		t.Errorf("TicksPerSec = %d, want 50", cfg.Derived.TicksPerSec)
	}
}

func TestLoadOverridesRecomputeDerived(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte("physics:\n  dt: 0.01\nagent:\n  turn_rate: 4.0\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if math.Abs(cfg.Derived.TurnStep-0.04) > 1e-12 {
		t.Errorf("TurnStep = %v, want 0.04", cfg.Derived.TurnStep)
	}
	if cfg.Derived.TicksPerSec != 100 {
		t.Errorf("TicksPerSec = %d, want 100", cfg.Derived.TicksPerSec)
	}
}
