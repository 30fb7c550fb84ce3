package main

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// EvalRecord is one row of the training log.
type EvalRecord struct {
	Eval       int     `csv:"eval"`
	Fitness    float64 `csv:"fitness"`
	MeanReward float64 `csv:"mean_reward"`
	MeanNectar float64 `csv:"mean_nectar"`
	BestReward float64 `csv:"best_reward"`
	ElapsedSec float64 `csv:"elapsed_sec"`
}

// EvalLog appends evaluation records to a CSV file.
type EvalLog struct {
	f             *os.File
	headerWritten bool
}

// NewEvalLog creates (truncating) the log file at path.
func NewEvalLog(path string) (*EvalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	return &EvalLog{f: f}, nil
}

// Write appends one record, writing the header first if needed.
func (l *EvalLog) Write(r EvalRecord) error {
	records := []EvalRecord{r}
	if !l.headerWritten {
		l.headerWritten = true
		return gocsv.Marshal(records, l.f)
	}
	return gocsv.MarshalWithoutHeaders(records, l.f)
}

// Close closes the log file.
func (l *EvalLog) Close() error {
	return l.f.Close()
}
