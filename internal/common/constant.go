// Package common contains shared constants and sentinel errors used across
// HomeFinder components.
package common

const (
	// AuthorizationHeaderName carries the bearer access token on API requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token in the Authorization header value.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName correlates a client request with server logs.
	RequestIDHeaderName = "X-Request-ID"
)

// Keys of the persisted session in the local metadata table.
const (
	UserKey        = "user"
	AccessTokenKey = "accessToken"
)
