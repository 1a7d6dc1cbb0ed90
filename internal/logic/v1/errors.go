// Package v1 provides the business logic of the mock system under test:
// the dummy-credential login flow, the session lookup behind the auth
// gate, and the parameterised and fixed-behaviour mock responses.
//
// Error Handling:
// This package defines sentinel errors for the few failure kinds the
// service reports. They are wrapped with context using fmt.Errorf("%w")
// and mapped to HTTP responses by the web layer with errors.Is.
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrInvalidCredentials):
//	    c.HTML(http.StatusUnauthorized, "login_failed", data)
//	case errors.Is(err, logicv1.ErrSessionNotFound):
//	    c.Redirect(http.StatusFound, "/login")
//	default:
//	    middleware.InternalError(c, err)
//	}
package v1

import "errors"

// Sentinel errors.
// These errors should be wrapped with context using fmt.Errorf("%w") when returned.
var (
	// ErrInvalidCredentials indicates the username or password does not
	// match the configured fixture.
	// HTTP Status: 401 Unauthorized (HTML failure page)
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionNotFound indicates the request carries no token or an
	// unknown one.
	// HTTP Status: 302 to /login for UI routes, 401 JSON for API routes
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionStore indicates the session backend failed.
	// HTTP Status: 500 Internal Server Error
	ErrSessionStore = errors.New("session store failure")

	// ErrInvalidStatus indicates a requested mock status code that cannot
	// be written on the wire.
	// HTTP Status: 500 Internal Server Error
	ErrInvalidStatus = errors.New("invalid status code")

	// ErrInvalidSize indicates a requested largeData length above
	// MaxLargeData.
	// HTTP Status: 500 Internal Server Error
	ErrInvalidSize = errors.New("invalid body size")
)
