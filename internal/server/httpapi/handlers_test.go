package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/aidolab/mgstudio/internal/common"
	"github.com/aidolab/mgstudio/internal/logging"
	"github.com/aidolab/mgstudio/internal/server/models"
	"github.com/aidolab/mgstudio/internal/server/services"
)

type fakeUserService struct {
	sendCodeErr error
	sentPhones  []string

	loginRes *services.LoginResult
	loginErr error

	authUserID string
	authErr    error

	loggedOut []string
}

func (f *fakeUserService) SendCode(ctx context.Context, phone string) error {
	f.sentPhones = append(f.sentPhones, phone)
	return f.sendCodeErr
}

func (f *fakeUserService) Login(ctx context.Context, phone, code string) (*services.LoginResult, error) {
	return f.loginRes, f.loginErr
}

func (f *fakeUserService) Authenticate(ctx context.Context, token string) (string, error) {
	return f.authUserID, f.authErr
}

func (f *fakeUserService) Logout(ctx context.Context, userID string) error {
	f.loggedOut = append(f.loggedOut, userID)
	return nil
}

type fakeWorkService struct {
	generateOut *models.Work
	generateErr error

	listOut []*models.Work
	listErr error

	getOut *models.Work
	getErr error

	deleteErr  error
	deletedIDs []string

	videoURL string
}

func (f *fakeWorkService) Generate(ctx context.Context, userID, prompt string) (*models.Work, error) {
	return f.generateOut, f.generateErr
}
func (f *fakeWorkService) List(ctx context.Context, userID string) ([]*models.Work, error) {
	return f.listOut, f.listErr
}
func (f *fakeWorkService) Get(ctx context.Context, userID, id string) (*models.Work, error) {
	return f.getOut, f.getErr
}
func (f *fakeWorkService) Delete(ctx context.Context, userID, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}
func (f *fakeWorkService) VideoURL(ctx context.Context, work *models.Work) (string, error) {
	if work.Status == models.WorkStatusCompleted {
		return f.videoURL, nil
	}
	return "", nil
}

type nopMetrics struct {
	codesSent    int
	loginResults []bool
	worksQueued  int
}

func (m *nopMetrics) RecordHTTPStatus(int)              {}
func (m *nopMetrics) RecordRequestLatency(time.Duration) {}
func (m *nopMetrics) RecordCodeSent()                    { m.codesSent++ }
func (m *nopMetrics) RecordLogin(success bool)           { m.loginResults = append(m.loginResults, success) }
func (m *nopMetrics) RecordWorkQueued()                  { m.worksQueued++ }

func newTestServer(t *testing.T, users *fakeUserService, works *fakeWorkService) (*httptest.Server, *nopMetrics, *RateLimiter) {
	t.Helper()

	limiter := NewRateLimiter(60, 3)
	t.Cleanup(limiter.Stop)

	m := &nopMetrics{}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := NewHandlers(users, works, limiter, m, logger)

	srv := httptest.NewServer(h.Router(prometheus.NewRegistry()))
	t.Cleanup(srv.Close)
	return srv, m, limiter
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestSendCode_OK(t *testing.T) {
	users := &fakeUserService{}
	srv, m, _ := newTestServer(t, users, &fakeWorkService{})

	resp := postJSON(t, srv.URL+"/send_code", map[string]string{"phone": "13800000000"}, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"13800000000"}, users.sentPhones)
	require.Equal(t, 1, m.codesSent)
}

func TestSendCode_MissingPhone(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeUserService{}, &fakeWorkService{})

	resp := postJSON(t, srv.URL+"/send_code", map[string]string{}, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendCode_RateLimited(t *testing.T) {
	users := &fakeUserService{}
	srv, _, _ := newTestServer(t, users, &fakeWorkService{})

	// burst of 3, fourth must be rejected
	for i := 0; i < 3; i++ {
		resp := postJSON(t, srv.URL+"/send_code", map[string]string{"phone": "13800000000"}, nil)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := postJSON(t, srv.URL+"/send_code", map[string]string{"phone": "13800000000"}, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))

	// a different phone still passes
	resp2 := postJSON(t, srv.URL+"/send_code", map[string]string{"phone": "13811111111"}, nil)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestLogin_Success(t *testing.T) {
	users := &fakeUserService{loginRes: &services.LoginResult{
		User:  &models.User{ID: "u1", Phone: "13800000000", Nickname: "neo"},
		Token: "tok123",
	}}
	srv, m, _ := newTestServer(t, users, &fakeWorkService{})

	resp := postJSON(t, srv.URL+"/login", map[string]string{"phone": "13800000000", "code": "123456"}, nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UserID   string `json:"user_id"`
		Token    string `json:"token"`
		Nickname string `json:"nickname"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "u1", body.UserID)
	require.Equal(t, "tok123", body.Token)
	require.Equal(t, "neo", body.Nickname)
	require.Equal(t, []bool{true}, m.loginResults)
}

func TestLogin_InvalidCode(t *testing.T) {
	users := &fakeUserService{loginErr: common.ErrorCodeInvalid}
	srv, m, _ := newTestServer(t, users, &fakeWorkService{})

	resp := postJSON(t, srv.URL+"/login", map[string]string{"phone": "13800000000", "code": "000000"}, nil)
	defer resp.Body.Close()

	// A wrong code must be a 400. A 401 here would make clients drop their
	// current session on a mistyped login retry.
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, []bool{false}, m.loginResults)
}

func TestAuthMiddleware_RejectsWithoutToken(t *testing.T) {
	srv, _, _ := newTestServer(t, &fakeUserService{}, &fakeWorkService{})

	resp, err := http.Get(srv.URL + "/user/works")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_RejectsRevokedToken(t *testing.T) {
	users := &fakeUserService{authErr: common.ErrTokenRevoked}
	srv, _, _ := newTestServer(t, users, &fakeWorkService{})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/user/works", nil)
	require.NoError(t, err)
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+"revoked")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_RejectsUserMismatch(t *testing.T) {
	users := &fakeUserService{authUserID: "u1"}
	srv, _, _ := newTestServer(t, users, &fakeWorkService{})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/user/works", nil)
	require.NoError(t, err)
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+"tok")
	req.Header.Set(common.UserIDHeaderName, "someone-else")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUserWorks_ReturnsPresignedURLs(t *testing.T) {
	users := &fakeUserService{authUserID: "u1"}
	works := &fakeWorkService{
		listOut: []*models.Work{
			{ID: "w2", Prompt: "newer", Status: models.WorkStatusQueued, CreatedAt: time.Now()},
			{ID: "w1", Prompt: "older", Status: models.WorkStatusCompleted, StorageKey: "videos/w1.mp4", CreatedAt: time.Now().Add(-time.Hour)},
		},
		videoURL: "https://s3/signed",
	}
	srv, _, _ := newTestServer(t, users, works)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/user/works", nil)
	require.NoError(t, err)
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+"tok")
	req.Header.Set(common.UserIDHeaderName, "u1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Works []struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			VideoURL string `json:"video_url"`
		} `json:"works"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Works, 2)
	require.Equal(t, "", body.Works[0].VideoURL)
	require.Equal(t, "https://s3/signed", body.Works[1].VideoURL)
}

func TestLogout_RevokesCaller(t *testing.T) {
	users := &fakeUserService{authUserID: "u1"}
	srv, _, _ := newTestServer(t, users, &fakeWorkService{})

	resp := postJSON(t, srv.URL+"/logout", nil, map[string]string{
		common.AuthorizationHeaderName: common.BearerPrefix + "tok",
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"u1"}, users.loggedOut)
}

func TestDeleteWork_NotFound(t *testing.T) {
	users := &fakeUserService{authUserID: "u1"}
	works := &fakeWorkService{deleteErr: common.ErrorNotFound}
	srv, _, _ := newTestServer(t, users, works)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/video/w404", nil)
	require.NoError(t, err)
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+"tok")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerate_QueuesWork(t *testing.T) {
	users := &fakeUserService{authUserID: "u1"}
	works := &fakeWorkService{generateOut: &models.Work{
		ID: "w1", Prompt: "a dancing cat", Status: models.WorkStatusQueued, CreatedAt: time.Now(),
	}}
	srv, m, _ := newTestServer(t, users, works)

	resp := postJSON(t, srv.URL+"/generate", map[string]string{"prompt": "a dancing cat"}, map[string]string{
		common.AuthorizationHeaderName: common.BearerPrefix + "tok",
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, m.worksQueued)

	var body struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "w1", body.ID)
	require.Equal(t, models.WorkStatusQueued, body.Status)
}
