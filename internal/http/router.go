package http

import "net/http"

type RouterConfig struct {
	Auth       *AuthHandler
	Calendars  *CalendarHandler
	Invites    *InviteHandler
	Events     *EventHandler
	Export     *ExportHandler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter assembles the API surface. Method and path matching is delegated
// to the ServeMux pattern syntax; authentication is applied by middleware, so
// even the public routes pass through the same chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("POST /auth/signup", cfg.Auth.Signup)
		mux.HandleFunc("POST /auth/login", cfg.Auth.Login)
		mux.HandleFunc("GET /auth/me", cfg.Auth.Me)
	}

	if cfg.Calendars != nil {
		mux.HandleFunc("GET /calendars", cfg.Calendars.List)
		mux.HandleFunc("POST /calendars", cfg.Calendars.Create)
		mux.HandleFunc("PATCH /calendars/{calendarID}", cfg.Calendars.Update)
		mux.HandleFunc("DELETE /calendars/{calendarID}", cfg.Calendars.Delete)
		mux.HandleFunc("GET /calendars/{calendarID}/members", cfg.Calendars.ListMembers)
		mux.HandleFunc("PATCH /calendars/{calendarID}/members/{userID}", cfg.Calendars.ChangeRole)
		mux.HandleFunc("DELETE /calendars/{calendarID}/members/{userID}", cfg.Calendars.RemoveMember)
	}

	if cfg.Invites != nil {
		mux.HandleFunc("GET /calendars/{calendarID}/invites", cfg.Invites.List)
		mux.HandleFunc("POST /calendars/{calendarID}/invites", cfg.Invites.Issue)
		mux.HandleFunc("DELETE /calendars/{calendarID}/invites/{inviteID}", cfg.Invites.Revoke)
		mux.HandleFunc("GET /invites/{token}", cfg.Invites.Lookup)
		mux.HandleFunc("POST /invites/{token}/accept", cfg.Invites.Accept)
		mux.HandleFunc("POST /invites/{token}/decline", cfg.Invites.Decline)
	}

	if cfg.Events != nil {
		mux.HandleFunc("GET /events", cfg.Events.List)
		mux.HandleFunc("POST /events", cfg.Events.Create)
		mux.HandleFunc("PATCH /events/{eventID}", cfg.Events.Update)
		mux.HandleFunc("DELETE /events/{eventID}", cfg.Events.Delete)
	}

	if cfg.Export != nil {
		mux.HandleFunc("GET /calendars/{calendarID}/export.ics", cfg.Export.Export)
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
