// Package http provides HTTP handlers and middleware for the time tracking API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}. The
//     token is also surfaced via the `X-Session-Token` header and a
//     `session_token` cookie.
//   - POST /sessions/refresh: rotates the presented session token, revoking
//     it and issuing a replacement with a full validity window.
//   - DELETE /sessions/current: revokes the current session token extracted
//     from the Authorization header or session cookie. Returns 204 No Content
//     and clears the cookie.
//   - POST /shifts/clock-in, POST /shifts/clock-out: open and close the
//     caller's shift. Clock-out reports derived totals and the pay snapshot.
//   - POST /shifts/breaks/start, POST /shifts/breaks/end: open and close a
//     break on the caller's open shift.
//   - GET /shifts/current: the caller's open shift, 404 when none is open.
//   - GET /shifts: shift history filtered by employee_id, project_id, status,
//     from, and to query parameters, scoped to the caller's role.
//   - GET /shifts/pending: closed shifts awaiting a decision, for managers
//     and administrators.
//   - GET /shifts/{id}: a single shift subject to the caller's scope.
//   - POST /shifts/{id}/approval: approves or rejects a closed shift.
//     Body: {"approve","rejection_reason"}.
//   - GET /reports: aggregated labor totals for a daily, weekly, monthly, or
//     custom period, optionally narrowed by employee_id, department, or
//     project_id.
//   - GET /reports/employees/{id}: a per-employee period summary.
//   - GET /reports/departments/{name}: a per-department period summary.
//   - GET /employees, POST /employees, GET /employees/{id},
//     PUT /employees/{id}, DELETE /employees/{id}: account management
//     endpoints exchanging the `employeeDTO` payload defined in
//     employee_handler.go. A credential-less POST against an empty store
//     registers the bootstrap administrator.
//   - GET /projects, POST /projects, GET /projects/{id}, PUT /projects/{id},
//     DELETE /projects/{id}: project catalog endpoints exchanging the
//     `projectDTO` payload defined in project_handler.go.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
