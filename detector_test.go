package main

import (
	"reflect"
	"testing"
	"time"
)

// testNow is a fixed "now" so date filtering is deterministic.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestExtractSnapshotNoRows(t *testing.T) {
	table := &Table{Rows: []Row{{ProjectID: 1, SampleOnsite: true}}}

	snap := extractSnapshot(table, 99999, testNow, testLogger())
	if snap.Ready != 0 {
		t.Errorf("extractSnapshot() Ready = %d, want 0", snap.Ready)
	}
	if len(snap.Scheduled) != 0 {
		t.Errorf("extractSnapshot() Scheduled = %v, want empty", snap.Scheduled)
	}
}

func TestExtractSnapshot(t *testing.T) {
	table := &Table{Rows: []Row{
		{ProjectID: 51712, SampleOnsite: true, ImagingDate: "02/01/2030"},
		{ProjectID: 51712, SampleOnsite: true},
		{ProjectID: 51712, SampleOnsite: false, ImagingDate: "01/01/2020"}, // past, filtered
		{ProjectID: 51712, SampleOnsite: false, ImagingDate: "bogus"},      // unparseable, skipped
		{ProjectID: 60204, SampleOnsite: true, ImagingDate: "03/01/2030"},  // other project
	}}

	snap := extractSnapshot(table, 51712, testNow, testLogger())
	if snap.Ready != 2 {
		t.Errorf("extractSnapshot() Ready = %d, want 2", snap.Ready)
	}
	if got := formatDates(snap.Scheduled); !reflect.DeepEqual(got, []string{"02/01/2030"}) {
		t.Errorf("extractSnapshot() Scheduled = %v, want [02/01/2030]", got)
	}
}

func TestDetectChangesScenario(t *testing.T) {
	store := NewStore(t.TempDir(), testLogger())
	if err := store.Save(51712, Snapshot{Ready: 2, Scheduled: []time.Time{mustDate(t, "01/01/2030")}}); err != nil {
		t.Fatal(err)
	}

	table := &Table{Rows: []Row{
		{ProjectID: 51712, SampleOnsite: true, ImagingDate: "01/01/2030"},
		{ProjectID: 51712, SampleOnsite: true, ImagingDate: "02/01/2030"},
		{ProjectID: 51712, SampleOnsite: true},
	}}

	delta, err := detectChanges(store, table, 51712, testNow, testLogger())
	if err != nil {
		t.Fatalf("detectChanges() error = %v", err)
	}
	if delta.NewReady != 1 {
		t.Errorf("NewReady = %d, want 1", delta.NewReady)
	}
	if got := formatDates(delta.NewScheduled); !reflect.DeepEqual(got, []string{"02/01/2030"}) {
		t.Errorf("NewScheduled = %v, want [02/01/2030]", got)
	}

	// The fresh state is persisted, delta or not.
	stored, err := store.Load(51712)
	if err != nil {
		t.Fatalf("Load() after detect error = %v", err)
	}
	if stored.Ready != 3 {
		t.Errorf("persisted Ready = %d, want 3", stored.Ready)
	}
	if got := formatDates(stored.Scheduled); !reflect.DeepEqual(got, []string{"01/01/2030", "02/01/2030"}) {
		t.Errorf("persisted Scheduled = %v, want [01/01/2030 02/01/2030]", got)
	}
}

func TestDetectChangesFirstRun(t *testing.T) {
	store := NewStore(t.TempDir(), testLogger())
	table := &Table{Rows: []Row{
		{ProjectID: 7, SampleOnsite: true},
		{ProjectID: 7, SampleOnsite: true},
	}}

	delta, err := detectChanges(store, table, 7, testNow, testLogger())
	if err != nil {
		t.Fatalf("detectChanges() error = %v", err)
	}
	if delta.NewReady != 2 {
		t.Errorf("NewReady = %d, want 2 on first run", delta.NewReady)
	}
}

func TestDetectChangesNoChanges(t *testing.T) {
	store := NewStore(t.TempDir(), testLogger())
	if err := store.Save(7, Snapshot{Ready: 1, Scheduled: []time.Time{mustDate(t, "02/01/2030")}}); err != nil {
		t.Fatal(err)
	}

	table := &Table{Rows: []Row{{ProjectID: 7, SampleOnsite: true, ImagingDate: "02/01/2030"}}}

	delta, err := detectChanges(store, table, 7, testNow, testLogger())
	if err != nil {
		t.Fatalf("detectChanges() error = %v", err)
	}
	if !delta.Empty() {
		t.Errorf("delta = %+v, want empty", delta)
	}
}

func TestDetectChangesReadyDecreaseIgnored(t *testing.T) {
	store := NewStore(t.TempDir(), testLogger())
	if err := store.Save(7, Snapshot{Ready: 3}); err != nil {
		t.Fatal(err)
	}

	table := &Table{Rows: []Row{{ProjectID: 7, SampleOnsite: true}}}

	delta, err := detectChanges(store, table, 7, testNow, testLogger())
	if err != nil {
		t.Fatalf("detectChanges() error = %v", err)
	}
	if delta.NewReady != 0 {
		t.Errorf("NewReady = %d, want 0 when ready count decreases", delta.NewReady)
	}
}

// A date swapped for another without the list growing is not reported.
func TestDetectChangesSwappedDateNotReported(t *testing.T) {
	store := NewStore(t.TempDir(), testLogger())
	if err := store.Save(7, Snapshot{Ready: 1, Scheduled: []time.Time{mustDate(t, "01/01/2030")}}); err != nil {
		t.Fatal(err)
	}

	table := &Table{Rows: []Row{{ProjectID: 7, SampleOnsite: true, ImagingDate: "03/01/2030"}}}

	delta, err := detectChanges(store, table, 7, testNow, testLogger())
	if err != nil {
		t.Fatalf("detectChanges() error = %v", err)
	}
	if len(delta.NewScheduled) != 0 {
		t.Errorf("NewScheduled = %v, want empty for a same-length swap", formatDates(delta.NewScheduled))
	}
}

// Stored dates that have passed are filtered before diffing, same as fresh
// ones, so a stale stored date doesn't mask a new one.
func TestDetectChangesStoredPastDateFiltered(t *testing.T) {
	store := NewStore(t.TempDir(), testLogger())
	if err := store.Save(7, Snapshot{Ready: 1, Scheduled: []time.Time{mustDate(t, "01/01/2020")}}); err != nil {
		t.Fatal(err)
	}

	table := &Table{Rows: []Row{{ProjectID: 7, SampleOnsite: true, ImagingDate: "02/01/2030"}}}

	delta, err := detectChanges(store, table, 7, testNow, testLogger())
	if err != nil {
		t.Fatalf("detectChanges() error = %v", err)
	}
	if got := formatDates(delta.NewScheduled); !reflect.DeepEqual(got, []string{"02/01/2030"}) {
		t.Errorf("NewScheduled = %v, want [02/01/2030]", got)
	}
}

// A session dated today must stay pending regardless of the host timezone
// or the time of day the check runs.
func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+13", 13*3600)
	evening := time.Date(2030, 2, 1, 23, 30, 0, 0, loc)

	got := startOfDay(evening)
	want := time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("startOfDay(%v) = %v, want %v", evening, got, want)
	}

	today := []time.Time{mustDate(t, "02/01/2030")}
	if pending := pendingDates(today, got); len(pending) != 1 {
		t.Errorf("pendingDates(today, startOfDay(now)) dropped today's session: %v", formatDates(pending))
	}
}

func TestPendingDates(t *testing.T) {
	dates := []time.Time{
		mustDate(t, "01/01/2020"),
		testNow,
		mustDate(t, "01/01/2030"),
	}

	got := formatDates(pendingDates(dates, testNow))
	want := []string{testNow.Format(dateLayout), "01/01/2030"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pendingDates() = %v, want %v", got, want)
	}
}

func TestNewDates(t *testing.T) {
	current := []time.Time{mustDate(t, "01/01/2030"), mustDate(t, "02/01/2030")}
	old := []time.Time{mustDate(t, "01/01/2030")}

	got := formatDates(newDates(current, old))
	if !reflect.DeepEqual(got, []string{"02/01/2030"}) {
		t.Errorf("newDates() = %v, want [02/01/2030]", got)
	}

	if added := newDates(old, old); len(added) != 0 {
		t.Errorf("newDates(x, x) = %v, want empty", formatDates(added))
	}
}
