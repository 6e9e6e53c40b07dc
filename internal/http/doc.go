// Package http provides HTTP handlers and middleware for the CrewCal API.
//
// The router exposes the following endpoints:
//   - POST /auth/signup, POST /auth/login: account creation and password
//     login. Both return {"token","userId","email"}. GET /auth/me returns the
//     account behind the bearer token.
//   - GET /calendars, POST /calendars, PATCH /calendars/{id},
//     DELETE /calendars/{id}: calendar CRUD exchanging the `calendarDTO`
//     payload defined in calendar_handler.go.
//   - GET /calendars/{id}/members, PATCH /calendars/{id}/members/{userId},
//     DELETE /calendars/{id}/members/{userId}: owner-only membership
//     administration.
//   - GET /calendars/{id}/invites, POST /calendars/{id}/invites,
//     DELETE /calendars/{id}/invites/{inviteId}: owner-only invite management.
//   - GET /invites/{token}: public pre-acceptance preview.
//     POST /invites/{token}/accept and POST /invites/{token}/decline resolve
//     the invite for the authenticated caller.
//   - GET /events?calendarIds=&from=&to=, POST /events,
//     PATCH /events/{id}, DELETE /events/{id}: event CRUD with role-based
//     redaction applied to listings.
//   - GET /calendars/{id}/export.ics: iCalendar export of one calendar with
//     the same redaction as the JSON listing.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
