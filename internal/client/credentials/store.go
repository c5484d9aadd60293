// Package credentials implements the client-side credential store: a small
// persisted key-value record of the authenticated session (token, user id,
// and optional profile attributes) that survives process restarts.
package credentials

import "context"

// Persisted keys. auth_token and user_id form the mandatory pair: a record
// is only considered present when both exist.
const (
	KeyToken    = "auth_token"
	KeyUserID   = "user_id"
	KeyPhone    = "user_phone"
	KeyNickname = "user_nickname"
	KeyAvatar   = "user_avatar"
)

// Record is the persisted credential tuple identifying an authenticated
// session. Token and UserID are mandatory together; the remaining fields are
// display attributes and may be empty.
type Record struct {
	Token    string
	UserID   string
	Phone    string
	Nickname string
	Avatar   string
}

// Store persists and retrieves the single process-wide credential Record.
//
// Contract:
//   - Save overwrites any prior values and is idempotent.
//   - Read returns (nil, nil) unless both token and user id are present;
//     optional attributes alone do not constitute a session.
//   - Clear removes every entry and is idempotent; clearing an empty store
//     is not an error.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Read(ctx context.Context) (*Record, error)
	Clear(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
}
