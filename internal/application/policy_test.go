package application

import "testing"

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"OWNER", "EDITOR", "FREEBUSY"} {
		role, ok := ParseRole(valid)
		if !ok || string(role) != valid {
			t.Fatalf("expected %q to parse, got %q ok=%v", valid, role, ok)
		}
	}

	for _, invalid := range []string{"", "owner", "ADMIN", "Editor"} {
		if _, ok := ParseRole(invalid); ok {
			t.Fatalf("expected %q to be rejected", invalid)
		}
	}
}

func TestAuthorize(t *testing.T) {
	ownerOnly := []Action{
		ActionUpdateCalendar,
		ActionDeleteCalendar,
		ActionListMembers,
		ActionChangeRole,
		ActionRemoveMember,
		ActionIssueInvite,
		ActionListInvites,
		ActionRevokeInvite,
	}

	for _, action := range ownerOnly {
		if !Authorize(RoleOwner, action) {
			t.Fatalf("owner should be allowed action %d", action)
		}
		if Authorize(RoleEditor, action) {
			t.Fatalf("editor should be denied action %d", action)
		}
		if Authorize(RoleFreeBusy, action) {
			t.Fatalf("freebusy should be denied action %d", action)
		}
	}

	if !Authorize(RoleOwner, ActionWriteEvent) || !Authorize(RoleEditor, ActionWriteEvent) {
		t.Fatal("owner and editor should be allowed to write events")
	}
	if Authorize(RoleFreeBusy, ActionWriteEvent) {
		t.Fatal("freebusy should be denied event writes")
	}

	for _, role := range []Role{RoleOwner, RoleEditor, RoleFreeBusy} {
		if !Authorize(role, ActionListEvents) {
			t.Fatalf("role %s should be allowed to list events", role)
		}
	}

	if Authorize("", ActionListEvents) {
		t.Fatal("non-member should be denied everything")
	}
}
