package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/crewcal/internal/application"
)

type inviteService interface {
	Issue(ctx context.Context, principal application.Principal, calendarID, email string, role application.Role) (application.Invite, error)
	ListInvites(ctx context.Context, principal application.Principal, calendarID string) ([]application.Invite, error)
	Lookup(ctx context.Context, token string) (application.InviteDetails, error)
	Accept(ctx context.Context, principal application.Principal, token string) (application.CalendarEntry, error)
	Decline(ctx context.Context, principal application.Principal, token string) error
	Revoke(ctx context.Context, principal application.Principal, calendarID, inviteID string) error
}

type InviteHandler struct {
	service   inviteService
	responder responder
	logger    *slog.Logger
}

func NewInviteHandler(service inviteService, logger *slog.Logger) *InviteHandler {
	base := defaultLogger(logger)
	return &InviteHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *InviteHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "InviteHandler", operation, attrs...)
}

type issueInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type inviteDTO struct {
	ID           string    `json:"id"`
	CalendarID   string    `json:"calendarId"`
	InviteeEmail string    `json:"inviteeEmail"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type inviteDetailsDTO struct {
	inviteDTO
	CalendarName string `json:"calendarName"`
	InviterEmail string `json:"inviterEmail"`
}

func (h *InviteHandler) Issue(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID := r.PathValue("calendarID")
	principal, _ := PrincipalFromContext(r.Context())

	var req issueInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Issue", "principal_id", principal.UserID, "calendar_id", calendarID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode invite request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Issue", "principal_id", principal.UserID, "calendar_id", calendarID)

	invite, err := h.service.Issue(r.Context(), principal, calendarID, req.Email, application.Role(req.Role))
	if err != nil {
		logger.ErrorContext(r.Context(), "invite issuing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("invite_id", invite.ID).InfoContext(r.Context(), "invite issued")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toInviteDTO(invite))
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID := r.PathValue("calendarID")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "calendar_id", calendarID)

	invites, err := h.service.ListInvites(r.Context(), principal, calendarID)
	if err != nil {
		logger.ErrorContext(r.Context(), "invite listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]inviteDTO, 0, len(invites))
	for _, invite := range invites {
		payload = append(payload, toInviteDTO(invite))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Lookup serves the pre-acceptance preview. It is deliberately public; the
// token is the capability.
func (h *InviteHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := r.PathValue("token")
	logger := h.log(r.Context(), "Lookup")

	details, err := h.service.Lookup(r.Context(), token)
	if err != nil {
		logger.ErrorContext(r.Context(), "invite lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, inviteDetailsDTO{
		inviteDTO:    toInviteDTO(details.Invite),
		CalendarName: details.CalendarName,
		InviterEmail: details.InviterEmail,
	})
}

func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := r.PathValue("token")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Accept", "principal_id", principal.UserID)

	entry, err := h.service.Accept(r.Context(), principal, token)
	if err != nil {
		logger.ErrorContext(r.Context(), "invite acceptance failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("calendar_id", entry.ID).InfoContext(r.Context(), "invite accepted")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCalendarDTO(entry.Calendar, entry.Role))
}

func (h *InviteHandler) Decline(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := r.PathValue("token")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Decline", "principal_id", principal.UserID)

	if err := h.service.Decline(r.Context(), principal, token); err != nil {
		logger.ErrorContext(r.Context(), "invite decline failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "invite declined")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID := r.PathValue("calendarID")
	inviteID := r.PathValue("inviteID")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Revoke", "principal_id", principal.UserID, "calendar_id", calendarID, "invite_id", inviteID)

	if err := h.service.Revoke(r.Context(), principal, calendarID, inviteID); err != nil {
		logger.ErrorContext(r.Context(), "invite revocation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "invite revoked")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func toInviteDTO(invite application.Invite) inviteDTO {
	return inviteDTO{
		ID:           invite.ID,
		CalendarID:   invite.CalendarID,
		InviteeEmail: invite.InviteeEmail,
		Role:         string(invite.Role),
		Status:       invite.Status,
		CreatedAt:    invite.CreatedAt,
		ExpiresAt:    invite.ExpiresAt,
	}
}
