// Package sms delivers verification codes to phone numbers. The production
// sender posts to an external gateway; development setups log the code
// instead of sending it.
package sms

import "context"

// Sender delivers a verification code to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}
