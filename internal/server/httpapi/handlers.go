// Package httpapi exposes the MG Studio JSON API over HTTP: SMS login,
// logout with token revocation, and text-to-animation work management.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aidolab/mgstudio/internal/common"
	"github.com/aidolab/mgstudio/internal/logging"
	"github.com/aidolab/mgstudio/internal/server/models"
	"github.com/aidolab/mgstudio/internal/server/services"
)

// UserService is the authentication surface the handlers need.
type UserService interface {
	SendCode(ctx context.Context, phone string) error
	Login(ctx context.Context, phone, code string) (*services.LoginResult, error)
	Authenticate(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, userID string) error
}

// WorkService is the work-management surface the handlers need.
type WorkService interface {
	Generate(ctx context.Context, userID, prompt string) (*models.Work, error)
	List(ctx context.Context, userID string) ([]*models.Work, error)
	Get(ctx context.Context, userID, id string) (*models.Work, error)
	Delete(ctx context.Context, userID, id string) error
	VideoURL(ctx context.Context, work *models.Work) (string, error)
}

// Metrics is the subset of the metrics collector the API records into.
type Metrics interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(d time.Duration)
	RecordCodeSent()
	RecordLogin(success bool)
	RecordWorkQueued()
}

// Handlers carries the dependencies of the HTTP endpoints.
type Handlers struct {
	users   UserService
	works   WorkService
	limiter *RateLimiter
	metrics Metrics
	logger  logging.Logger
}

func NewHandlers(users UserService, works WorkService, limiter *RateLimiter, m Metrics, logger logging.Logger) *Handlers {
	return &Handlers{
		users:   users,
		works:   works,
		limiter: limiter,
		metrics: m,
		logger:  logger.With("component", "httpapi"),
	}
}

// --- wire shapes ---

type sendCodeRequest struct {
	Phone string `json:"phone"`
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

type statusResponse struct {
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// --- endpoints ---

// SendCode handles POST /send_code.
func (h *Handlers) SendCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	if !h.limiter.Allow(req.Phone) {
		h.logger.Warn(r.Context(), "send_code rate limited", "phone", req.Phone)
		writeRateLimitResponse(w, h.limiter.limit())
		return
	}

	if err := h.users.SendCode(r.Context(), req.Phone); err != nil {
		h.logger.Error(r.Context(), "send_code failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "could not send verification code")
		return
	}

	h.metrics.RecordCodeSent()
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "verification code sent"})
}

// Login handles POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Phone == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "phone and code are required")
		return
	}

	res, err := h.users.Login(r.Context(), req.Phone, req.Code)
	if err != nil {
		h.metrics.RecordLogin(false)
		if errors.Is(err, common.ErrorCodeInvalid) {
			// 400, not 401: a wrong code is bad input, and 401 is reserved
			// for credential failures so clients can treat it as a session
			// loss. An already logged-in user retrying /login with a typo
			// must keep their current session.
			writeError(w, http.StatusBadRequest, "invalid or expired verification code")
			return
		}
		h.logger.Error(r.Context(), "login failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.metrics.RecordLogin(true)
	writeJSON(w, http.StatusOK, loginResponse{
		UserID:    res.User.ID,
		Token:     res.Token,
		Phone:     res.User.Phone,
		Nickname:  res.User.Nickname,
		Signature: res.User.Signature,
		Message:   "login successful",
	})
}

// Logout handles POST /logout. Requires authentication; revokes every token
// issued to the caller.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.users.Logout(r.Context(), userID); err != nil {
		h.logger.Error(r.Context(), "logout failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "logged out"})
}

// Generate handles POST /generate.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	work, err := h.works.Generate(r.Context(), userID, req.Prompt)
	if err != nil {
		if errors.Is(err, common.ErrorCodeInvalid) {
			writeError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		h.logger.Error(r.Context(), "generate failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "could not queue work")
		return
	}

	h.metrics.RecordWorkQueued()
	writeJSON(w, http.StatusOK, h.toPayload(r.Context(), work))
}

// UserWorks handles GET /user/works.
func (h *Handlers) UserWorks(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	works, err := h.works.List(r.Context(), userID)
	if err != nil {
		h.logger.Error(r.Context(), "listing works failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "could not list works")
		return
	}

	payloads := make([]workPayload, 0, len(works))
	for _, work := range works {
		payloads = append(payloads, h.toPayload(r.Context(), work))
	}
	writeJSON(w, http.StatusOK, worksResponse{Works: payloads})
}

// WorkDetail handles GET /video/{id}.
func (h *Handlers) WorkDetail(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id := chi.URLParam(r, "id")
	work, err := h.works.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "work not found")
			return
		}
		h.logger.Error(r.Context(), "fetching work failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "could not fetch work")
		return
	}

	writeJSON(w, http.StatusOK, h.toPayload(r.Context(), work))
}

// DeleteWork handles DELETE /video/{id}.
func (h *Handlers) DeleteWork(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.works.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "work not found")
			return
		}
		h.logger.Error(r.Context(), "deleting work failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "could not delete work")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "deleted"})
}

// toPayload converts a work to its wire shape, attaching a presigned video
// URL for completed works. Presign failures degrade to an empty URL rather
// than failing the whole request.
func (h *Handlers) toPayload(ctx context.Context, work *models.Work) workPayload {
	url, err := h.works.VideoURL(ctx, work)
	if err != nil {
		h.logger.Warn(ctx, "presigning video url failed", "work_id", work.ID, "error", err.Error())
		url = ""
	}

	return workPayload{
		ID:        work.ID,
		Prompt:    work.Prompt,
		Status:    work.Status,
		VideoURL:  url,
		CreatedAt: work.CreatedAt,
	}
}
