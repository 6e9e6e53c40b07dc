package application

import "github.com/example/crewcal/internal/persistence"

// RedactedTitle replaces the real title when an event is disclosed to a
// FREEBUSY member.
const RedactedTitle = "Busy"

// renderEvent applies the per-field disclosure policy for the caller's role.
// FREEBUSY members see only that the slot is occupied: the title is replaced,
// and the note and reminder are withheld. Identity, calendar, interval, and
// the all-day flag survive redaction so clients can still draw the block.
func renderEvent(role Role, event persistence.Event, reminderMinutes *int) EventView {
	view := EventView{
		ID:         event.ID,
		CalendarID: event.CalendarID,
		StartAt:    event.StartAt,
		EndAt:      event.EndAt,
		AllDay:     event.AllDay,
	}
	if role == RoleFreeBusy {
		view.Title = RedactedTitle
		return view
	}
	view.Title = event.Title
	view.Note = event.Note
	view.ReminderMinutesBefore = reminderMinutes
	return view
}
