package policy

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// checkpointVersion is bumped whenever Checkpoint changes shape.
const checkpointVersion = 1

// ErrCheckpointVersion is returned when loading a checkpoint written by an
// incompatible version.
var ErrCheckpointVersion = errors.New("policy: unsupported checkpoint version")

// Checkpoint is a saved network plus where it came from.
type Checkpoint struct {
	Version int
	RunID   string
	Hidden  int
	Params  []float64
	Fitness float64 // Mean episode reward when saved
}

// NewCheckpoint snapshots nn.
func NewCheckpoint(nn *FFNN, runID string, fitness float64) Checkpoint {
	return Checkpoint{
		Version: checkpointVersion,
		RunID:   runID,
		Hidden:  nn.Hidden(),
		Params:  nn.Params(),
		Fitness: fitness,
	}
}

// Network rebuilds the saved network.
func (c Checkpoint) Network() (*FFNN, error) {
	return FFNNFromParams(c.Hidden, c.Params)
}

// SaveCheckpoint writes c as zstd-compressed gob, creating parent directories.
func SaveCheckpoint(path string, c Checkpoint) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating checkpoint: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(enc)

	if err := gob.NewEncoder(bw).Encode(&c); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return f.Close()
}

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint.
func LoadCheckpoint(path string) (Checkpoint, error) {
	var c Checkpoint
	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("opening checkpoint: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return c, err
	}
	defer dec.Close()

	if err := gob.NewDecoder(bufio.NewReader(dec)).Decode(&c); err != nil {
		return c, fmt.Errorf("gob decode: %w", err)
	}
	if c.Version != checkpointVersion {
		return c, fmt.Errorf("%w: %d", ErrCheckpointVersion, c.Version)
	}
	return c, nil
}

// LoadFFNN reads a checkpoint and rebuilds its network.
func LoadFFNN(path string) (*FFNN, error) {
	c, err := LoadCheckpoint(path)
	if err != nil {
		return nil, err
	}
	return c.Network()
}
