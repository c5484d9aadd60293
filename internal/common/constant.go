// Package common contains shared constants and sentinel errors used across
// MG Studio components.
package common

const (
	// AuthorizationHeaderName carries the bearer access token on outbound
	// requests.
	AuthorizationHeaderName = "Authorization"

	// UserIDHeaderName carries the identity of the calling user alongside the
	// token. The server verifies that the token was issued to this user.
	UserIDHeaderName = "X-User-Id"

	// BearerPrefix is the scheme prefix of the Authorization header value.
	BearerPrefix = "Bearer "
)
