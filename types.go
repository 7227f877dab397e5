package main

import "time"

// Row is one entry from the dynamic queue sheet.
type Row struct {
	ProjectID    int
	Status       string
	Technique    string
	SampleOnsite bool
	ImagingDate  string // raw cell text, "" when unscheduled
}

// Table is the queue sheet restricted to the columns queuewatch reads.
type Table struct {
	Rows []Row
}

// Project returns the rows belonging to one project.
func (t *Table) Project(id int) []Row {
	var rows []Row
	for _, row := range t.Rows {
		if row.ProjectID == id {
			rows = append(rows, row)
		}
	}
	return rows
}

// Delta is what changed for a project since the previous check.
type Delta struct {
	NewReady     int
	NewScheduled []time.Time
}

// Empty reports whether there is anything worth notifying about.
func (d Delta) Empty() bool {
	return d.NewReady == 0 && len(d.NewScheduled) == 0
}
