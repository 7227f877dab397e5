package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// dateLayout is the MM/DD/YYYY format the sheet and the snapshot files use.
const dateLayout = "01/02/2006"

// Snapshot is the last-known scheduling state for one project.
type Snapshot struct {
	Ready     int
	Scheduled []time.Time
}

// snapshotFile is the persisted form: dates as formatted strings.
type snapshotFile struct {
	Ready     int      `json:"ready"`
	Scheduled []string `json:"scheduled"`
}

// Store reads and writes per-project snapshot files.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir. An empty dir means the working
// directory.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

func (s *Store) path(project int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d_samples.json", project))
}

// Load returns the stored snapshot for a project. A missing file means this
// is the first check for the project, not an error.
func (s *Store) Load(project int) (Snapshot, error) {
	data, err := os.ReadFile(s.path(project))
	if os.IsNotExist(err) {
		s.logger.Warn("no snapshot file, starting fresh", "project", project, "path", s.path(project))
		return Snapshot{Scheduled: []time.Time{}}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot for project %d: %w", project, err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Snapshot{}, fmt.Errorf("parsing snapshot for project %d: %w", project, err)
	}

	snap := Snapshot{Ready: file.Ready, Scheduled: make([]time.Time, 0, len(file.Scheduled))}
	for _, raw := range file.Scheduled {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("parsing snapshot date %q for project %d: %w", raw, project, err)
		}
		snap.Scheduled = append(snap.Scheduled, date)
	}

	s.logger.Debug("loaded snapshot", "project", project, "ready", snap.Ready, "scheduled", file.Scheduled)
	return snap, nil
}

// Save persists a snapshot, creating the state directory if needed.
func (s *Store) Save(project int, snap Snapshot) error {
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return fmt.Errorf("creating state directory: %w", err)
		}
	}

	file := snapshotFile{Ready: snap.Ready, Scheduled: formatDates(snap.Scheduled)}
	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("encoding snapshot for project %d: %w", project, err)
	}

	if err := os.WriteFile(s.path(project), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot for project %d: %w", project, err)
	}
	return nil
}

// formatDates renders dates in the sheet's MM/DD/YYYY format.
func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(dateLayout))
	}
	return out
}
