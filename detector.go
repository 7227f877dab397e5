package main

import (
	"log/slog"
	"time"
)

// extractSnapshot computes the current state for one project: how many
// samples are onsite and which imaging dates are still pending.
func extractSnapshot(table *Table, project int, now time.Time, logger *slog.Logger) Snapshot {
	rows := table.Project(project)
	if len(rows) == 0 {
		logger.Info("no samples found", "project", project)
		return Snapshot{Scheduled: []time.Time{}}
	}

	snap := Snapshot{Scheduled: []time.Time{}}
	for _, row := range rows {
		if row.SampleOnsite {
			snap.Ready++
		}
		if row.ImagingDate == "" {
			continue
		}
		date, err := time.Parse(dateLayout, row.ImagingDate)
		if err != nil {
			logger.Warn("unparseable imaging date", "project", project, "cell", row.ImagingDate)
			continue
		}
		snap.Scheduled = append(snap.Scheduled, date)
	}

	snap.Scheduled = pendingDates(snap.Scheduled, now)
	return snap
}

// detectChanges diffs the current state of a project against its stored
// snapshot, persists the current state, and returns what changed. The
// snapshot is written back whether or not anything changed, so the next
// check always compares against this one.
func detectChanges(store *Store, table *Table, project int, now time.Time, logger *slog.Logger) (Delta, error) {
	current := extractSnapshot(table, project, now, logger)

	old, err := store.Load(project)
	if err != nil {
		return Delta{}, err
	}
	// Same pending-dates policy on both sides of the diff.
	old.Scheduled = pendingDates(old.Scheduled, now)

	var delta Delta
	if current.Ready > old.Ready {
		delta.NewReady = current.Ready - old.Ready
	} else if current.Ready < old.Ready {
		logger.Debug("ready count decreased, not notifying", "project", project, "old", old.Ready, "current", current.Ready)
	}

	added := newDates(current.Scheduled, old.Scheduled)
	if len(current.Scheduled) > len(old.Scheduled) {
		delta.NewScheduled = added
	} else if len(added) > 0 {
		// A date was swapped for another without the count growing. The
		// length gate keeps this out of notifications.
		logger.Debug("scheduled dates changed without growing, not notifying", "project", project, "dates", formatDates(added))
	}

	if err := store.Save(project, current); err != nil {
		return Delta{}, err
	}

	logger.Debug("checked project",
		"project", project,
		"ready", current.Ready,
		"scheduled", formatDates(current.Scheduled),
		"new_ready", delta.NewReady,
		"new_scheduled", formatDates(delta.NewScheduled))
	return delta, nil
}

// startOfDay maps a wall-clock instant to midnight UTC of its local date,
// matching how sheet dates parse, so the pending cutoff doesn't shift with
// the host timezone.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// pendingDates keeps dates on or after now.
func pendingDates(dates []time.Time, now time.Time) []time.Time {
	pending := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if !d.Before(now) {
			pending = append(pending, d)
		}
	}
	return pending
}

// newDates returns the dates in current that are absent from old.
func newDates(current, old []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(old))
	for _, d := range old {
		seen[d] = true
	}

	var added []time.Time
	for _, d := range current {
		if !seen[d] {
			added = append(added, d)
		}
	}
	return added
}
