package api

import "errors"

var (
	// ErrUnavailable marks transport-level failures: the request never
	// produced an HTTP response.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized marks a 401 response. By the time the caller sees it
	// the credential store has been cleared and the unauthenticated signal
	// broadcast.
	ErrUnauthorized = errors.New("unauthorized")
)
