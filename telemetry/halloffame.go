package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// HallEntry is one evaluated policy's weights and score.
type HallEntry struct {
	Eval    int       `json:"eval"`
	Fitness float64   `json:"fitness"` // Mean episode reward; higher is better
	Nectar  float64   `json:"nectar"`
	Hidden  int       `json:"hidden"`
	Params  []float64 `json:"params"`
}

// HallOfFame keeps the best policies seen during a search, sorted by
// fitness descending.
type HallOfFame struct {
	hall    []HallEntry
	maxSize int
}

// NewHallOfFame creates a new hall of fame with the given capacity.
func NewHallOfFame(maxSize int) *HallOfFame {
	return &HallOfFame{
		hall:    make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider offers an entry to the hall. Returns true if it was added.
// The params are copied.
func (hof *HallOfFame) Consider(entry HallEntry) bool {
	entry.Params = append([]float64(nil), entry.Params...)

	var added bool
	hof.hall, added = hof.insertEntry(hof.hall, entry)
	return added
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) ([]HallEntry, bool) {
	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall, false
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}
	return hall, true
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.hall)
}

// Top returns the best entry, or false if the hall is empty.
func (hof *HallOfFame) Top() (HallEntry, bool) {
	if len(hof.hall) == 0 {
		return HallEntry{}, false
	}
	return hof.hall[0], true
}

// Entries returns the entries, best first.
func (hof *HallOfFame) Entries() []HallEntry {
	return hof.hall
}

// MarshalJSON serializes the hall of fame to JSON.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.hall, "", "  ")
}

// WriteFile writes the hall as JSON to path.
func (hof *HallOfFame) WriteFile(path string) error {
	data, err := hof.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadHallOfFameFromFile reads a hall of fame JSON file. The capacity is the
// larger of maxSize and the number of entries in the file.
func LoadHallOfFameFromFile(path string, maxSize int) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var entries []HallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	if len(entries) > maxSize {
		maxSize = len(entries)
	}
	hof := NewHallOfFame(maxSize)
	for _, e := range entries {
		hof.hall, _ = hof.insertEntry(hof.hall, e)
	}
	return hof, nil
}
