package models

import "time"

// VerificationCode stores a digest of an SMS code sent to a phone number.
// The plain code never touches the database.
type VerificationCode struct {
	ID         string
	Phone      string
	CodeDigest []byte
	Expires    time.Time
	CreatedAt  time.Time
}
