package main

import (
	"bufio"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/policy"
	"github.com/pthm-cable/forage/telemetry"
)

func testConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	cfg.Episode.MaxSteps = 20
	return cfg
}

func TestEvaluateDeterministic(t *testing.T) {
	cfg := testConfig()
	fe := NewFitnessEvaluator(cfg, 4, 1, []int64{1, 2})
	x := policy.NewFFNN(rand.New(rand.NewSource(3)), 4, 1).Params()

	a := fe.Evaluate(x)
	b := fe.Evaluate(x)
	if math.IsNaN(a) || math.IsInf(a, 0) {
		t.Fatalf("fitness = %v", a)
	}
	if a != b {
		t.Errorf("same weights scored %v then %v", a, b)
	}

	best, params := fe.Best()
	if best != a || len(params) != len(x) {
		t.Errorf("best = %v with %d params, want %v with %d", best, len(params), a, len(x))
	}
}

func TestEvaluatorForcesTraining(t *testing.T) {
	cfg := testConfig()
	cfg.Episode.TrainingMode = false
	fe := NewFitnessEvaluator(cfg, 4, 1, []int64{1})
	if !fe.baseConfig.Episode.TrainingMode {
		t.Error("evaluator should run episodes in training mode")
	}
	if cfg.Episode.TrainingMode {
		t.Error("evaluator modified the caller's config")
	}
}

func TestEvalLogHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train_log.csv")
	l, err := NewEvalLog(path)
	if err != nil {
		t.Fatalf("NewEvalLog: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if err := l.Write(EvalRecord{Eval: i, Fitness: -float64(i)}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines++
	}
	if lines != 4 {
		t.Errorf("log has %d lines, want header + 3", lines)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{65 * time.Second, "1m05s"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2h03m04s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestInitialParamsResume(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hall_of_fame.json")

	params := make([]float64, policy.ParamCount(4))
	params[0] = 0.75
	hof := telemetry.NewHallOfFame(hallSize)
	hof.Consider(telemetry.HallEntry{Eval: 3, Fitness: 1, Hidden: 4, Params: params})
	if err := hof.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := initialParams(options{resume: path}, 4, 1)
	if err != nil {
		t.Fatalf("initialParams: %v", err)
	}
	if len(got) != len(params) || got[0] != 0.75 {
		t.Errorf("resumed params = %d values starting %v", len(got), got[0])
	}

	if _, err := initialParams(options{resume: path}, 8, 1); err == nil {
		t.Error("resuming with a different hidden size should fail")
	}

	fresh, err := initialParams(options{seed: 1}, 4, 1)
	if err != nil || len(fresh) != policy.ParamCount(4) {
		t.Errorf("fresh params: %d values, err %v", len(fresh), err)
	}
}
