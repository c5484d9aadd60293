package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aidolab/mgstudio/internal/client/authsignal"
	"github.com/aidolab/mgstudio/internal/client/credentials"
	"github.com/aidolab/mgstudio/internal/common"
	"github.com/aidolab/mgstudio/internal/logging"
)

// ---- fake store ----

type fakeStore struct {
	mu         sync.Mutex
	rec        *credentials.Record
	ClearCalls int
}

func (f *fakeStore) Save(ctx context.Context, rec *credentials.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := *rec
	f.rec = &r
	return nil
}

func (f *fakeStore) Read(ctx context.Context) (*credentials.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec == nil {
		return nil, nil
	}
	r := *f.rec
	return &r, nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearCalls++
	f.rec = nil
	return nil
}

func (f *fakeStore) IsAuthenticated(ctx context.Context) bool {
	rec, _ := f.Read(ctx)
	return rec != nil
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestClient(t *testing.T, srv *httptest.Server, store credentials.Store) (*HTTPClient, *authsignal.Signal) {
	t.Helper()
	sig := authsignal.New()
	return NewHTTPClient(srv.URL, store, sig, discardLogger(), 5*time.Second), sig
}

// ---- tests ----

func TestHTTPClient_AttachesCredentialHeaders(t *testing.T) {
	var gotAuth, gotUserID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get(common.AuthorizationHeaderName)
		gotUserID = r.Header.Get(common.UserIDHeaderName)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "ok"})
	}))
	defer srv.Close()

	store := &fakeStore{rec: &credentials.Record{Token: "t1", UserID: "u1"}}
	client, _ := newTestClient(t, srv, store)

	_, err := client.SendCode(context.Background(), "13800000000")
	require.NoError(t, err)
	require.Equal(t, "Bearer t1", gotAuth)
	require.Equal(t, "u1", gotUserID)
}

func TestHTTPClient_NoHeadersWhenStoreEmpty(t *testing.T) {
	var hadAuth, hadUserID bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header[common.AuthorizationHeaderName]
		_, hadUserID = r.Header[http.CanonicalHeaderKey(common.UserIDHeaderName)]
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "ok"})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, &fakeStore{})

	_, err := client.SendCode(context.Background(), "13800000000")
	require.NoError(t, err)
	require.False(t, hadAuth, "no Authorization header for an empty store")
	require.False(t, hadUserID, "no X-User-Id header for an empty store")
}

func TestHTTPClient_401ClearsStoreAndBroadcastsOnce(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid token"})
	}))
	defer srv.Close()

	store := &fakeStore{rec: &credentials.Record{Token: "stale", UserID: "u1"}}
	client, sig := newTestClient(t, srv, store)

	var notified int
	sig.Subscribe(func() { notified++ })

	err := client.Logout(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Contains(t, err.Error(), "invalid token")

	require.Equal(t, 1, store.ClearCalls, "store cleared directly by the client")
	require.False(t, store.IsAuthenticated(context.Background()))
	require.Equal(t, 1, notified, "exactly one broadcast per failed call")
	require.Equal(t, 1, calls, "401 must not be retried")
}

func TestHTTPClient_OtherStatusesPropagateWithoutSignal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "database down"})
	}))
	defer srv.Close()

	store := &fakeStore{rec: &credentials.Record{Token: "t1", UserID: "u1"}}
	client, sig := newTestClient(t, srv, store)

	var notified int
	sig.Subscribe(func() { notified++ })

	_, err := client.SendCode(context.Background(), "13800000000")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthorized)
	require.Contains(t, err.Error(), "database down")

	require.Zero(t, notified, "non-401 failures never touch the signal")
	require.Zero(t, store.ClearCalls, "non-401 failures never touch the store")
	require.True(t, store.IsAuthenticated(context.Background()))
}

func TestHTTPClient_RejectedLoginRetryKeepsCurrentSession(t *testing.T) {
	// The server answers a wrong verification code with 400, so a logged-in
	// user mistyping a code on a login retry keeps their current session.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid or expired verification code"})
	}))
	defer srv.Close()

	store := &fakeStore{rec: &credentials.Record{Token: "t1", UserID: "u1"}}
	client, sig := newTestClient(t, srv, store)

	var notified int
	sig.Subscribe(func() { notified++ })

	_, err := client.Login(context.Background(), "13800000000", "000000")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthorized)

	require.Zero(t, notified)
	require.Zero(t, store.ClearCalls)
	require.True(t, store.IsAuthenticated(context.Background()), "a wrong code must not cost the current session")
}

func TestHTTPClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	client, _ := newTestClient(t, srv, &fakeStore{})

	_, err := client.SendCode(context.Background(), "13800000000")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_Login_DecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "13800000000", req["phone"])
		require.Equal(t, "123456", req["code"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"user_id":  "u1",
			"token":    "t1",
			"phone":    "13800000000",
			"nickname": "A",
			"message":  "login ok",
		})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, &fakeStore{})

	res, err := client.Login(context.Background(), "13800000000", "123456")
	require.NoError(t, err)
	require.Equal(t, "u1", res.UserID)
	require.Equal(t, "t1", res.Token)
	require.Equal(t, "13800000000", res.Phone)
	require.Equal(t, "A", res.Nickname)
}

func TestHTTPClient_WorksRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "POST /generate":
			_ = json.NewEncoder(w).Encode(workPayload{ID: "w1", Prompt: "a cat", Status: WorkStatusQueued, CreatedAt: created})
		case "GET /user/works":
			_ = json.NewEncoder(w).Encode(worksResponse{Works: []workPayload{
				{ID: "w1", Prompt: "a cat", Status: WorkStatusCompleted, VideoURL: "https://cdn/x", CreatedAt: created},
			}})
		case "DELETE /video/w1":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "deleted"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv, &fakeStore{rec: &credentials.Record{Token: "t1", UserID: "u1"}})
	ctx := context.Background()

	work, err := client.Generate(ctx, "a cat")
	require.NoError(t, err)
	require.Equal(t, "w1", work.ID)
	require.Equal(t, WorkStatusQueued, work.Status)

	works, err := client.UserWorks(ctx)
	require.NoError(t, err)
	require.Len(t, works, 1)
	require.Equal(t, "https://cdn/x", works[0].VideoURL)
	require.True(t, created.Equal(works[0].CreatedAt))

	require.NoError(t, client.DeleteWork(ctx, "w1"))

	_, err = client.WorkDetail(ctx, "missing")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrUnauthorized))
}
