package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/crewcal/internal/application"
)

type calendarService interface {
	ListCalendars(ctx context.Context, principal application.Principal) ([]application.CalendarEntry, error)
	CreateCalendar(ctx context.Context, principal application.Principal, input application.CalendarInput) (application.CalendarEntry, error)
	UpdateCalendar(ctx context.Context, principal application.Principal, calendarID string, patch application.CalendarPatch) (application.Calendar, error)
	DeleteCalendar(ctx context.Context, principal application.Principal, calendarID string) error
	ListMembers(ctx context.Context, principal application.Principal, calendarID string) ([]application.Member, error)
	ChangeRole(ctx context.Context, principal application.Principal, calendarID, userID string, role application.Role) error
	RemoveMember(ctx context.Context, principal application.Principal, calendarID, userID string) error
}

type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CalendarHandler", operation, attrs...)
}

type calendarRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

type calendarDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Role      string    `json:"role,omitempty"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type memberDTO struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	entries, err := h.service.ListCalendars(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "calendar listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]calendarDTO, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, toCalendarDTO(entry.Calendar, entry.Role))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req calendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode calendar request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	input := application.CalendarInput{}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Color != nil {
		input.Color = *req.Color
	}

	entry, err := h.service.CreateCalendar(r.Context(), principal, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "calendar creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("calendar_id", entry.ID).InfoContext(r.Context(), "calendar created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toCalendarDTO(entry.Calendar, entry.Role))
}

func (h *CalendarHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID := r.PathValue("calendarID")
	principal, _ := PrincipalFromContext(r.Context())

	var req calendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "calendar_id", calendarID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode calendar update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "calendar_id", calendarID)

	calendar, err := h.service.UpdateCalendar(r.Context(), principal, calendarID, application.CalendarPatch{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "calendar update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "calendar updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCalendarDTO(calendar, ""))
}

func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID := r.PathValue("calendarID")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "calendar_id", calendarID)

	if err := h.service.DeleteCalendar(r.Context(), principal, calendarID); err != nil {
		logger.ErrorContext(r.Context(), "calendar deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "calendar deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CalendarHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID := r.PathValue("calendarID")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListMembers", "principal_id", principal.UserID, "calendar_id", calendarID)

	members, err := h.service.ListMembers(r.Context(), principal, calendarID)
	if err != nil {
		logger.ErrorContext(r.Context(), "member listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]memberDTO, 0, len(members))
	for _, member := range members {
		payload = append(payload, memberDTO{
			UserID:      member.UserID,
			Email:       member.Email,
			DisplayName: member.DisplayName,
			Role:        string(member.Role),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *CalendarHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID := r.PathValue("calendarID")
	userID := r.PathValue("userID")
	principal, _ := PrincipalFromContext(r.Context())

	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "ChangeRole", "principal_id", principal.UserID, "calendar_id", calendarID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode role change", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ChangeRole", "principal_id", principal.UserID, "calendar_id", calendarID, "target_user_id", userID)

	if err := h.service.ChangeRole(r.Context(), principal, calendarID, userID, application.Role(req.Role)); err != nil {
		logger.ErrorContext(r.Context(), "role change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("role", req.Role).InfoContext(r.Context(), "member role changed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CalendarHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID := r.PathValue("calendarID")
	userID := r.PathValue("userID")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "RemoveMember", "principal_id", principal.UserID, "calendar_id", calendarID, "target_user_id", userID)

	if err := h.service.RemoveMember(r.Context(), principal, calendarID, userID); err != nil {
		logger.ErrorContext(r.Context(), "member removal failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "member removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func toCalendarDTO(calendar application.Calendar, role application.Role) calendarDTO {
	return calendarDTO{
		ID:        calendar.ID,
		Name:      calendar.Name,
		Color:     calendar.Color,
		Role:      string(role),
		CreatedBy: calendar.CreatedBy,
		CreatedAt: calendar.CreatedAt,
		UpdatedAt: calendar.UpdatedAt,
	}
}
