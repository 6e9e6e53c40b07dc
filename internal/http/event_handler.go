package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/crewcal/internal/application"
)

type eventService interface {
	List(ctx context.Context, principal application.Principal, calendarIDs []string, from, to time.Time) ([]application.EventView, error)
	Create(ctx context.Context, principal application.Principal, input application.EventInput) (application.EventView, error)
	Update(ctx context.Context, principal application.Principal, eventID string, patch application.EventPatch) (application.EventView, error)
	Delete(ctx context.Context, principal application.Principal, eventID string) error
}

type EventHandler struct {
	service   eventService
	responder responder
	logger    *slog.Logger
}

func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	base := defaultLogger(logger)
	return &EventHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EventHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EventHandler", operation, attrs...)
}

type createEventRequest struct {
	CalendarID            string    `json:"calendarId"`
	Title                 string    `json:"title"`
	StartAt               time.Time `json:"startAt"`
	EndAt                 time.Time `json:"endAt"`
	AllDay                bool      `json:"allDay"`
	Note                  *string   `json:"note"`
	ReminderMinutesBefore *int      `json:"reminderMinutesBefore"`
}

type updateEventRequest struct {
	Title                 *string    `json:"title"`
	StartAt               *time.Time `json:"startAt"`
	EndAt                 *time.Time `json:"endAt"`
	AllDay                *bool      `json:"allDay"`
	Note                  *string    `json:"note"`
	ReminderMinutesBefore *int       `json:"reminderMinutesBefore"`
}

type eventDTO struct {
	ID                    string    `json:"id"`
	CalendarID            string    `json:"calendarId"`
	Title                 string    `json:"title"`
	StartAt               time.Time `json:"startAt"`
	EndAt                 time.Time `json:"endAt"`
	AllDay                bool      `json:"allDay"`
	Note                  *string   `json:"note,omitempty"`
	ReminderMinutesBefore *int      `json:"reminderMinutesBefore,omitempty"`
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	calendarIDs := splitCalendarIDs(r.URL.Query().Get("calendarIds"))
	from, to, err := parseTimeSpan(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid event window", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeSpan)
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	views, err := h.service.List(r.Context(), principal, calendarIDs, from, to)
	if err != nil {
		logger.ErrorContext(r.Context(), "event listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]eventDTO, 0, len(views))
	for _, view := range views {
		payload = append(payload, toEventDTO(view))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "calendar_id", req.CalendarID)

	view, err := h.service.Create(r.Context(), principal, application.EventInput{
		CalendarID:            req.CalendarID,
		Title:                 req.Title,
		StartAt:               req.StartAt,
		EndAt:                 req.EndAt,
		AllDay:                req.AllDay,
		Note:                  req.Note,
		ReminderMinutesBefore: req.ReminderMinutesBefore,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "event creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("event_id", view.ID).InfoContext(r.Context(), "event created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(view))
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := r.PathValue("eventID")
	principal, _ := PrincipalFromContext(r.Context())

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "event_id", eventID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "event_id", eventID)

	view, err := h.service.Update(r.Context(), principal, eventID, application.EventPatch{
		Title:                 req.Title,
		StartAt:               req.StartAt,
		EndAt:                 req.EndAt,
		AllDay:                req.AllDay,
		Note:                  req.Note,
		ReminderMinutesBefore: req.ReminderMinutesBefore,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "event update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(view))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := r.PathValue("eventID")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "event_id", eventID)

	if err := h.service.Delete(r.Context(), principal, eventID); err != nil {
		logger.ErrorContext(r.Context(), "event deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func toEventDTO(view application.EventView) eventDTO {
	return eventDTO{
		ID:                    view.ID,
		CalendarID:            view.CalendarID,
		Title:                 view.Title,
		StartAt:               view.StartAt,
		EndAt:                 view.EndAt,
		AllDay:                view.AllDay,
		Note:                  view.Note,
		ReminderMinutesBefore: view.ReminderMinutesBefore,
	}
}

func splitCalendarIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func parseTimeSpan(rawFrom, rawTo string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, rawFrom)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse(time.RFC3339, rawTo)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
