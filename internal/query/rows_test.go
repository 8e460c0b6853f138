package query

import (
	"testing"

	"regdesk/internal/model"
)

func TestProjectRowsOrdinalsAndEventName(t *testing.T) {
	content := []model.RegistrationRecord{
		{ID: "R41", Name: "Kim"},
		{ID: "R42", Name: "Lee", EventName: "Summer Relay"},
	}
	primary := model.Event{ID: "E1", Name: "Spring Open"}

	rows := ProjectRows(content, 3, 20, primary)
	if len(rows) != 2 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[0].No != 41 || rows[1].No != 42 {
		t.Fatalf("ordinals=%d,%d want 41,42", rows[0].No, rows[1].No)
	}
	if rows[0].EventName != "Spring Open" {
		t.Fatalf("missing event name not backfilled: %q", rows[0].EventName)
	}
	if rows[1].EventName != "Summer Relay" {
		t.Fatalf("present event name overwritten: %q", rows[1].EventName)
	}
}

func TestProjectRowsEmpty(t *testing.T) {
	rows := ProjectRows(nil, 1, 20, model.Event{})
	if rows == nil || len(rows) != 0 {
		t.Fatalf("rows=%v, want empty non-nil slice", rows)
	}
}

func TestEmptyClassification(t *testing.T) {
	s := DefaultState()
	if got := Empty([]model.DisplayRow{{}}, 1, s); got != EmptyNone {
		t.Fatalf("non-empty page: %v", got)
	}
	if got := Empty(nil, 0, s); got != EmptyNoData {
		t.Fatalf("no rows, no filters: %v", got)
	}

	s.Query = "kim"
	if got := Empty(nil, 0, s); got != EmptyNoMatch {
		t.Fatalf("no rows with a query: %v", got)
	}

	// Stale page past the end: rows empty but total non-zero.
	if got := Empty(nil, 30, DefaultState()); got != EmptyNoMatch {
		t.Fatalf("empty page with data elsewhere: %v", got)
	}
}
