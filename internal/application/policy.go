package application

// Role is a member's permission level on one calendar.
type Role string

const (
	// RoleOwner grants full control over the calendar, its members, and invites.
	RoleOwner Role = "OWNER"
	// RoleEditor grants event read/write but no membership or invite control.
	RoleEditor Role = "EDITOR"
	// RoleFreeBusy grants a redacted, read-only view of events.
	RoleFreeBusy Role = "FREEBUSY"
)

// ParseRole validates a caller supplied role string.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleOwner, RoleEditor, RoleFreeBusy:
		return Role(value), true
	}
	return "", false
}

// Action identifies a calendar-scoped operation subject to the role policy.
type Action int

const (
	ActionUpdateCalendar Action = iota
	ActionDeleteCalendar
	ActionListMembers
	ActionChangeRole
	ActionRemoveMember
	ActionIssueInvite
	ActionListInvites
	ActionRevokeInvite
	ActionWriteEvent
	ActionListEvents
)

// Authorize reports whether a member holding role may perform action. There is
// no privilege inheritance; each action names its exact allowed role set. A
// non-member (empty role) is denied everything.
func Authorize(role Role, action Action) bool {
	switch action {
	case ActionUpdateCalendar, ActionDeleteCalendar,
		ActionListMembers, ActionChangeRole, ActionRemoveMember,
		ActionIssueInvite, ActionListInvites, ActionRevokeInvite:
		return role == RoleOwner
	case ActionWriteEvent:
		return role == RoleOwner || role == RoleEditor
	case ActionListEvents:
		// FREEBUSY members may list too; they just get the redacted view.
		return role == RoleOwner || role == RoleEditor || role == RoleFreeBusy
	}
	return false
}
