// Package http exposes the front-desk booking API over net/http.
//
// The router serves the following endpoints:
//   - GET /rooms: the room catalog ordered by floor.
//   - GET /availability?room_id=&check_in=&check_out=[&exclude=]: night by
//     night availability of one room over [check_in, check_out).
//   - POST /selections: validates a dragged timeline selection. Body:
//     {"room_id","start_offset","end_offset","origin"}.
//   - POST /quotes: prices a stay without booking it.
//   - POST /reservations, GET /reservations/{id}: create and read bookings.
//   - PUT /reservations/{id}/move, PUT /reservations/{id}/status and
//     PUT /reservations/{id}/daily-details: change room or dates, move
//     through the lifecycle, and replace per-night overrides.
//   - GET /occupancy?start=&days= and GET /timeline?start=&days=: reporting
//     and the room by day grid. Timeline responses carry an ETag and honour
//     If-None-Match.
//   - GET /healthz: store liveness.
//
// Dates are YYYY-MM-DD strings. Validation failures answer 422 with a
// field map, unknown resources 404, booking conflicts 409 with the blocking
// reservations. Request and response DTOs live in dto.go.
package http
