package telemetry

import (
	"bufio"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pthm-cable/forage/config"
)

func init() {
	config.MustInit("")
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector("run", 3, 0.02)
	c.RecordFeed(false)
	c.RecordFeed(true)
	c.RecordBoundaryHit()
	c.RecordPlacementFailure()

	s := c.Flush(1, 100, []float64{1, 3}, []float64{0.5, 0.25}, 22.5)

	if s.RunID != "run" || s.Episode != 1 || s.Steps != 100 || s.Agents != 2 {
		t.Errorf("header fields = %+v", s)
	}
	if math.Abs(s.SimTimeSec-2) > 1e-9 {
		t.Errorf("sim time = %v, want 2", s.SimTimeSec)
	}
	if s.RewardMean != 2 || s.NectarTotal != 0.75 || s.NectarMean != 0.375 {
		t.Errorf("reward/nectar = %v %v %v", s.RewardMean, s.NectarTotal, s.NectarMean)
	}
	if s.Feeds != 2 || s.Depletions != 1 || s.BoundaryHits != 1 || s.PlacementFailures != 1 {
		t.Errorf("counters = %+v", s)
	}

	next := c.Flush(2, 100, []float64{0}, []float64{0}, 24)
	if next.Feeds != 0 || next.Depletions != 0 || next.BoundaryHits != 0 || next.PlacementFailures != 0 {
		t.Error("counters should reset after Flush")
	}
}

func TestCollectorRewardWindow(t *testing.T) {
	c := NewCollector("run", 2, 0.02)

	tests := []struct {
		reward float64
		want   float64
	}{
		{2, 2},
		{4, 3},
		{6, 5}, // Oldest episode drops out
		{8, 7},
	}
	for i, tt := range tests {
		s := c.Flush(i, 1, []float64{tt.reward}, nil, 0)
		if math.Abs(s.WindowRewardMean-tt.want) > 1e-9 {
			t.Errorf("episode %d window mean = %v, want %v", i, s.WindowRewardMean, tt.want)
		}
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	if err := om.WriteEpisode(EpisodeStats{}); err != nil {
		t.Errorf("nil manager WriteEpisode: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil manager Close: %v", err)
	}
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	runID := uuid.NewString()
	for i := 0; i < 3; i++ {
		if err := om.WriteEpisode(EpisodeStats{RunID: runID, Episode: i}); err != nil {
			t.Fatalf("WriteEpisode: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{}, 0); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteConfig(config.Cfg()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "episodes.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "run_id,episode,") {
		t.Errorf("header = %q", lines[0])
	}
	for _, l := range lines[1:] {
		if !strings.HasPrefix(l, runID+",") {
			t.Errorf("row %q missing run id", l)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
}
