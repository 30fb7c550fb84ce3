package telemetry

import (
	"path/filepath"
	"testing"
)

func TestHallOfFameKeepsBest(t *testing.T) {
	hof := NewHallOfFame(3)
	for i, f := range []float64{0.5, 2.0, 1.0, 0.1, 3.0} {
		hof.Consider(HallEntry{Eval: i + 1, Fitness: f, Params: []float64{f}})
	}

	if hof.Size() != 3 {
		t.Fatalf("size = %d, want 3", hof.Size())
	}
	want := []float64{3.0, 2.0, 1.0}
	for i, e := range hof.Entries() {
		if e.Fitness != want[i] {
			t.Errorf("entry %d fitness = %v, want %v", i, e.Fitness, want[i])
		}
	}

	if hof.Consider(HallEntry{Fitness: 0.2}) {
		t.Error("entry below a full hall should be rejected")
	}
}

func TestHallOfFameCopiesParams(t *testing.T) {
	hof := NewHallOfFame(2)
	p := []float64{1, 2, 3}
	hof.Consider(HallEntry{Fitness: 1, Params: p})
	p[0] = 99

	top, ok := hof.Top()
	if !ok || top.Params[0] != 1 {
		t.Errorf("hall entry aliases the caller's params: %v", top.Params)
	}
}

func TestHallOfFameFileRoundTrip(t *testing.T) {
	hof := NewHallOfFame(5)
	hof.Consider(HallEntry{Eval: 7, Fitness: 1.5, Hidden: 4, Params: []float64{0.1, -0.2}})
	hof.Consider(HallEntry{Eval: 9, Fitness: 2.5, Hidden: 4, Params: []float64{0.3, 0.4}})

	path := filepath.Join(t.TempDir(), "hall_of_fame.json")
	if err := hof.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded, err := LoadHallOfFameFromFile(path, 1)
	if err != nil {
		t.Fatalf("LoadHallOfFameFromFile: %v", err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("size = %d, want 2", loaded.Size())
	}
	top, _ := loaded.Top()
	if top.Eval != 9 || top.Hidden != 4 || len(top.Params) != 2 {
		t.Errorf("top entry = %+v", top)
	}
}

func TestHallOfFameEmpty(t *testing.T) {
	if _, ok := NewHallOfFame(3).Top(); ok {
		t.Error("empty hall should have no top entry")
	}
}
