package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/emersion/go-ical"

	"github.com/example/crewcal/internal/application"
)

type exportService interface {
	CalendarEvents(ctx context.Context, principal application.Principal, calendarID string, from, to time.Time) (application.Calendar, []application.EventView, error)
}

// ExportHandler serves a calendar as an iCalendar document. Events carry the
// same role-based redaction as the JSON listing.
type ExportHandler struct {
	service   exportService
	responder responder
	now       func() time.Time
	logger    *slog.Logger
}

func NewExportHandler(service exportService, now func() time.Time, logger *slog.Logger) *ExportHandler {
	base := defaultLogger(logger)
	if now == nil {
		now = time.Now
	}
	return &ExportHandler{service: service, responder: newResponder(base), now: now, logger: base}
}

func (h *ExportHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ExportHandler", operation, attrs...)
}

func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID := r.PathValue("calendarID")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Export", "principal_id", principal.UserID, "calendar_id", calendarID)

	// Default window is a year either side of now; explicit from/to override.
	now := h.now()
	from := now.AddDate(-1, 0, 0)
	to := now.AddDate(1, 0, 0)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeSpan)
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeSpan)
			return
		}
		to = parsed
	}

	calendar, views, err := h.service.CalendarEvents(r.Context(), principal, calendarID, from, to)
	if err != nil {
		logger.ErrorContext(r.Context(), "calendar export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	doc := buildICS(calendar, views, now)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+calendar.ID+`.ics"`)
	if err := ical.NewEncoder(w).Encode(doc); err != nil {
		logger.ErrorContext(r.Context(), "failed to encode calendar export", "error", err)
		return
	}

	logger.With("event_count", len(views)).InfoContext(r.Context(), "calendar exported")
}

func buildICS(calendar application.Calendar, views []application.EventView, now time.Time) *ical.Calendar {
	doc := ical.NewCalendar()
	doc.Props.SetText(ical.PropVersion, "2.0")
	doc.Props.SetText(ical.PropProductID, "-//CrewCal//CrewCal Server//EN")
	doc.Props.SetText(ical.PropName, calendar.Name)

	for _, view := range views {
		event := ical.NewComponent(ical.CompEvent)
		event.Props.SetText(ical.PropUID, view.ID+"@crewcal")
		event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, view.StartAt.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, view.EndAt.UTC())
		event.Props.SetText(ical.PropSummary, view.Title)
		if view.Note != nil && *view.Note != "" {
			event.Props.SetText(ical.PropDescription, *view.Note)
		}
		doc.Children = append(doc.Children, event)
	}
	return doc
}
