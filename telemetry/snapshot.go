package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the state of the field and agents at the end of an episode.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Seed    int64  `json:"seed"`

	Episode int `json:"episode"`
	Steps   int `json:"steps"`

	Agents  []AgentState  `json:"agents"`
	Flowers []FlowerState `json:"flowers"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState holds one agent's pose and episode totals.
type AgentState struct {
	Index    int        `json:"index"`
	Position [3]float64 `json:"position"`
	Pitch    float64    `json:"pitch"`
	Yaw      float64    `json:"yaw"`
	Reward   float64    `json:"reward"`
	Nectar   float64    `json:"nectar"`
	Frozen   bool       `json:"frozen,omitempty"`
}

// FlowerState holds one flower's remaining nectar.
type FlowerState struct {
	Name     string     `json:"name"`
	Position [3]float64 `json:"position"`
	Quantity float64    `json:"quantity"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_ep%d", snapshot.Episode)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_ep%d_%s", snapshot.Episode, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
