package api

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Wire shapes. Field names follow the server's JSON contract.

type sendCodeRequest struct {
	Phone string `json:"phone"`
}

type sendCodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type loginRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type loginResponse struct {
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	Phone     string `json:"phone,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	Signature string `json:"signature,omitempty"`
	Message   string `json:"message"`
}

type logoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type workPayload struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Status    string    `json:"status"`
	VideoURL  string    `json:"video_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type worksResponse struct {
	Works []workPayload `json:"works"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (p *workPayload) toWork() Work {
	return Work{
		ID:        p.ID,
		Prompt:    p.Prompt,
		Status:    p.Status,
		VideoURL:  p.VideoURL,
		CreatedAt: p.CreatedAt,
	}
}

// SendCode requests an SMS verification code for phone. Returns the server's
// user-facing message.
func (c *HTTPClient) SendCode(ctx context.Context, phone string) (string, error) {
	var resp sendCodeResponse
	if err := c.do(ctx, http.MethodPost, "/send_code", sendCodeRequest{Phone: phone}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Login exchanges phone+code for a credential record. It does not touch the
// session or the store; the caller decides what to persist.
func (c *HTTPClient) Login(ctx context.Context, phone, code string) (*LoginResult, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", loginRequest{Phone: phone, Code: code}, &resp); err != nil {
		return nil, err
	}
	return &LoginResult{
		UserID:    resp.UserID,
		Token:     resp.Token,
		Phone:     resp.Phone,
		Nickname:  resp.Nickname,
		Signature: resp.Signature,
		Message:   resp.Message,
	}, nil
}

// Logout revokes the server-side session. Credentials travel in headers;
// there is no request body.
func (c *HTTPClient) Logout(ctx context.Context) error {
	var resp logoutResponse
	return c.do(ctx, http.MethodPost, "/logout", nil, &resp)
}

// Generate submits a text prompt and returns the queued work.
func (c *HTTPClient) Generate(ctx context.Context, prompt string) (*Work, error) {
	var resp workPayload
	if err := c.do(ctx, http.MethodPost, "/generate", generateRequest{Prompt: prompt}, &resp); err != nil {
		return nil, err
	}
	w := resp.toWork()
	return &w, nil
}

// UserWorks lists the caller's works, newest first.
func (c *HTTPClient) UserWorks(ctx context.Context) ([]Work, error) {
	var resp worksResponse
	if err := c.do(ctx, http.MethodGet, "/user/works", nil, &resp); err != nil {
		return nil, err
	}
	works := make([]Work, 0, len(resp.Works))
	for i := range resp.Works {
		works = append(works, resp.Works[i].toWork())
	}
	return works, nil
}

// WorkDetail fetches one work; for completed works the response carries a
// presigned video URL.
func (c *HTTPClient) WorkDetail(ctx context.Context, id string) (*Work, error) {
	var resp workPayload
	if err := c.do(ctx, http.MethodGet, "/video/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	w := resp.toWork()
	return &w, nil
}

// DeleteWork removes one of the caller's works.
func (c *HTTPClient) DeleteWork(ctx context.Context, id string) error {
	var resp deleteResponse
	return c.do(ctx, http.MethodDelete, "/video/"+url.PathEscape(id), nil, &resp)
}
