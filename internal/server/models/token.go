package models

import "time"

// IssuedToken is a server-side record of an access token handed out at
// login. Logout deletes the row, after which the token is rejected even if
// its JWT expiry has not passed yet.
type IssuedToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
