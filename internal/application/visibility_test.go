package application

import (
	"testing"
	"time"

	"github.com/example/crewcal/internal/persistence"
)

func TestRenderEventRedactsForFreeBusy(t *testing.T) {
	note := "bring slides"
	reminder := 15
	event := persistence.Event{
		ID:         "event-1",
		CalendarID: "cal-1",
		Title:      "Quarterly review",
		StartAt:    time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC),
		AllDay:     false,
		Note:       &note,
	}

	view := renderEvent(RoleFreeBusy, event, &reminder)

	if view.Title != RedactedTitle {
		t.Fatalf("expected redacted title, got %q", view.Title)
	}
	if view.Note != nil {
		t.Fatal("expected note to be withheld")
	}
	if view.ReminderMinutesBefore != nil {
		t.Fatal("expected reminder to be withheld")
	}
	if view.ID != event.ID || view.CalendarID != event.CalendarID {
		t.Fatal("identity fields must survive redaction")
	}
	if !view.StartAt.Equal(event.StartAt) || !view.EndAt.Equal(event.EndAt) {
		t.Fatal("interval must survive redaction")
	}
}

func TestRenderEventPreservesFieldsForEditorsAndOwners(t *testing.T) {
	note := "agenda attached"
	reminder := 30
	event := persistence.Event{
		ID:      "event-2",
		Title:   "Standup",
		StartAt: time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2025, time.June, 3, 9, 15, 0, 0, time.UTC),
		Note:    &note,
	}

	for _, role := range []Role{RoleOwner, RoleEditor} {
		view := renderEvent(role, event, &reminder)
		if view.Title != event.Title {
			t.Fatalf("role %s: expected title preserved, got %q", role, view.Title)
		}
		if view.Note == nil || *view.Note != note {
			t.Fatalf("role %s: expected note preserved", role)
		}
		if view.ReminderMinutesBefore == nil || *view.ReminderMinutesBefore != reminder {
			t.Fatalf("role %s: expected reminder preserved", role)
		}
	}
}
