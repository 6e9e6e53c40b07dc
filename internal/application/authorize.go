package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/crewcal/internal/persistence"
)

// requireRole resolves the principal's role on the calendar and checks it
// against the policy for action. Non-members are indistinguishable from
// members lacking the permission; both get ErrForbidden.
func requireRole(ctx context.Context, calendars persistence.CalendarRepository, principal Principal, calendarID string, action Action) (Role, error) {
	if !principal.Authenticated() {
		return "", ErrUnauthenticated
	}

	stored, err := calendars.RoleOf(ctx, calendarID, principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return "", ErrForbidden
		}
		return "", fmt.Errorf("resolve role: %w", err)
	}

	role := Role(stored)
	if !Authorize(role, action) {
		return role, ErrForbidden
	}
	return role, nil
}
