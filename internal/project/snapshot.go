package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/CutStock/internal/model"
)

// SnapshotVersion is written to every saved snapshot.
const SnapshotVersion = "1.0.0"

// Snapshot is a saved observation, e.g. an imported cut list waiting for a
// decision.
type Snapshot struct {
	Version     string            `json:"version"`
	CreatedAt   string            `json:"created_at"`
	StockLabels []string          `json:"stock_labels,omitempty"`
	Observation model.Observation `json:"observation"`
}

// NewSnapshot stamps obs with the current version and time.
func NewSnapshot(obs model.Observation, stockLabels []string) Snapshot {
	return Snapshot{
		Version:     SnapshotVersion,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		StockLabels: stockLabels,
		Observation: obs,
	}
}

// SaveSnapshot writes the snapshot as indented JSON.
func SaveSnapshot(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse snapshot file: %w", err)
	}
	if snap.Version == "" {
		return Snapshot{}, fmt.Errorf("invalid snapshot file: missing version field")
	}
	return snap, nil
}
