// Package api is the HomeFinder client for the marketplace REST API.
//
// # Overview
//
// Client covers the endpoints the client core depends on:
//
//   - credential exchange: Login, Register, VerifyOTP, ResendOTP
//   - session validation: Profile (GET /api/auth/profile)
//   - session teardown: Logout (POST /api/auth/logout)
//   - profile edits: UpdateProfile
//   - liveness: Ping (GET /api/health)
//
// Every response uses the same JSON envelope:
//
//	{"success": true, "message": "...", "user": {...}, "accessToken": "..."}
//
// # Error Handling
//
// Transport failures map to ErrUnavailable, HTTP 401 to ErrUnauthorized and
// any other non-2xx status to *APIError, which keeps the server's message.
// *APIError with status 401 also matches ErrUnauthorized under errors.Is.
// MessageOf extracts user-facing text from any of these.
package api
