package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/crewcal/internal/application"
)

type inviteServiceStub struct {
	details application.InviteDetails
	entry   application.CalendarEntry
	err     error
}

func (s *inviteServiceStub) Issue(ctx context.Context, principal application.Principal, calendarID, email string, role application.Role) (application.Invite, error) {
	return application.Invite{}, s.err
}

func (s *inviteServiceStub) ListInvites(ctx context.Context, principal application.Principal, calendarID string) ([]application.Invite, error) {
	return nil, s.err
}

func (s *inviteServiceStub) Lookup(ctx context.Context, token string) (application.InviteDetails, error) {
	return s.details, s.err
}

func (s *inviteServiceStub) Accept(ctx context.Context, principal application.Principal, token string) (application.CalendarEntry, error) {
	return s.entry, s.err
}

func (s *inviteServiceStub) Decline(ctx context.Context, principal application.Principal, token string) error {
	return s.err
}

func (s *inviteServiceStub) Revoke(ctx context.Context, principal application.Principal, calendarID, inviteID string) error {
	return s.err
}

type calendarServiceStub struct {
	entries []application.CalendarEntry
	err     error
}

func (s *calendarServiceStub) ListCalendars(ctx context.Context, principal application.Principal) ([]application.CalendarEntry, error) {
	return s.entries, s.err
}

func (s *calendarServiceStub) CreateCalendar(ctx context.Context, principal application.Principal, input application.CalendarInput) (application.CalendarEntry, error) {
	return application.CalendarEntry{}, s.err
}

func (s *calendarServiceStub) UpdateCalendar(ctx context.Context, principal application.Principal, calendarID string, patch application.CalendarPatch) (application.Calendar, error) {
	return application.Calendar{}, s.err
}

func (s *calendarServiceStub) DeleteCalendar(ctx context.Context, principal application.Principal, calendarID string) error {
	return s.err
}

func (s *calendarServiceStub) ListMembers(ctx context.Context, principal application.Principal, calendarID string) ([]application.Member, error) {
	return nil, s.err
}

func (s *calendarServiceStub) ChangeRole(ctx context.Context, principal application.Principal, calendarID, userID string, role application.Role) error {
	return s.err
}

func (s *calendarServiceStub) RemoveMember(ctx context.Context, principal application.Principal, calendarID, userID string) error {
	return s.err
}

func newTestRouter(invites inviteService, calendars calendarService) http.Handler {
	cfg := RouterConfig{}
	if invites != nil {
		cfg.Invites = NewInviteHandler(invites, nil)
	}
	if calendars != nil {
		cfg.Calendars = NewCalendarHandler(calendars, nil)
	}
	return NewRouter(cfg)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestInviteLookupIsPublic(t *testing.T) {
	stub := &inviteServiceStub{details: application.InviteDetails{
		Invite: application.Invite{
			ID:         "invite-1",
			CalendarID: "cal-1",
			Role:       application.RoleEditor,
			Status:     "PENDING",
			ExpiresAt:  time.Date(2025, time.June, 9, 9, 0, 0, 0, time.UTC),
		},
		CalendarName: "Team",
		InviterEmail: "owner@example.com",
	}}
	router := newTestRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invites/tok-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body inviteDetailsDTO
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.CalendarName != "Team" || body.Role != "EDITOR" {
		t.Fatalf("unexpected payload: %+v", body)
	}
}

func TestInviteAcceptErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unauthenticated", application.ErrUnauthenticated, http.StatusUnauthorized, "AUTH_REQUIRED"},
		{"email mismatch", application.ErrInviteEmailMismatch, http.StatusForbidden, "INVITE_EMAIL_MISMATCH"},
		{"not pending", application.ErrInviteNotPending, http.StatusBadRequest, "INVITE_NOT_PENDING"},
		{"expired", application.ErrInviteExpired, http.StatusBadRequest, "INVITE_EXPIRED"},
		{"unknown token", application.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&inviteServiceStub{err: tc.err}, nil)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invites/tok-1/accept", nil))

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			if body := decodeError(t, rec); body.ErrorCode != tc.wantCode {
				t.Fatalf("expected code %s, got %s", tc.wantCode, body.ErrorCode)
			}
		})
	}
}

func TestChangeRoleLastOwnerConflict(t *testing.T) {
	router := newTestRouter(nil, &calendarServiceStub{err: application.ErrLastOwner})

	req := httptest.NewRequest(http.MethodPatch, "/calendars/cal-1/members/user-1", strings.NewReader(`{"role":"EDITOR"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.ErrorCode != "LAST_OWNER" {
		t.Fatalf("expected LAST_OWNER, got %s", body.ErrorCode)
	}
}

func TestValidationErrorsSurfaceFieldDetails(t *testing.T) {
	vErr := &application.ValidationError{FieldErrors: map[string]string{"name": "name is required"}}
	router := newTestRouter(nil, &calendarServiceStub{err: vErr})

	req := httptest.NewRequest(http.MethodPost, "/calendars", strings.NewReader(`{"name":""}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Errors["name"] != "name is required" {
		t.Fatalf("expected field errors surfaced, got %+v", body.Errors)
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	router := newTestRouter(nil, &calendarServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/calendars", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
