// Package api is the MG Studio HTTP client. Every outbound call reads the
// credential store and attaches the bearer token and user-identity headers
// when present; a 401 response defensively clears the store and broadcasts
// the process-wide unauthenticated signal. There is no retry and no backoff:
// failures other than 401 propagate to the caller unchanged.
package api

import (
	"context"
	"time"
)

// LoginResult is the payload of a successful login.
type LoginResult struct {
	UserID    string
	Token     string
	Phone     string
	Nickname  string
	Signature string
	Message   string
}

// Work is a generated animation job as reported by the server. VideoURL is a
// short-lived presigned link, populated only for completed works.
type Work struct {
	ID        string
	Prompt    string
	Status    string
	VideoURL  string
	CreatedAt time.Time
}

// Work statuses reported by the server.
const (
	WorkStatusQueued    = "queued"
	WorkStatusRendering = "rendering"
	WorkStatusCompleted = "completed"
)

// Client defines the remote operations the application uses.
//
// Contract:
//   - SendCode: request an SMS verification code for the phone number.
//   - Login: exchange phone+code for a credential record.
//   - Logout: revoke the server-side session; requires credentials.
//   - Generate: submit a text prompt, returns the queued work.
//   - UserWorks / WorkDetail / DeleteWork: manage the caller's works.
//
// All methods honor context cancellation/timeouts. None of them mutates the
// session; the caller decides what to do with the results.
type Client interface {
	SendCode(ctx context.Context, phone string) (string, error)
	Login(ctx context.Context, phone, code string) (*LoginResult, error)
	Logout(ctx context.Context) error
	Generate(ctx context.Context, prompt string) (*Work, error)
	UserWorks(ctx context.Context) ([]Work, error)
	WorkDetail(ctx context.Context, id string) (*Work, error)
	DeleteWork(ctx context.Context, id string) error
}
