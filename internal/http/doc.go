// Package http provides HTTP handlers and middleware for the booking API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","user":{...}} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted from
//     the Authorization header or session cookie. Returns 204 and clears the cookie.
//   - GET /users, POST /users, GET|PUT|DELETE /users/{id}: administrator controlled
//     user management endpoints exchanging the `userDTO` payload defined in
//     user_handler.go. PUT /profile lets any principal update their own record.
//   - GET /resources, POST /resources, GET|PUT|DELETE /resources/{id}: resource
//     catalog endpoints exchanging the `resourceDTO` payload defined in
//     resource_handler.go. Listing and reads are open to any authenticated
//     principal while mutations require admin privileges.
//   - POST /bookings: submits a booking request, optionally recurring; the full
//     expanded group comes back in the response. GET /bookings lists the caller's
//     groups (all groups for admins); GET /bookings/{id} returns a group with its
//     stored occurrences.
//   - GET /occurrences/pending: the admin approval queue. POST
//     /occurrences/{id}/approve, .../reject and .../cancel drive the occurrence
//     lifecycle and return the transitioned occurrence.
//   - GET /dashboard: aggregated booking statistics for the landing page.
//   - GET /notifications and POST /notifications/{id}/read: per-user notification
//     feed management.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
