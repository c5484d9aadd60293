package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aidolab/mgstudio/internal/client/authsignal"
	"github.com/aidolab/mgstudio/internal/client/credentials"
	"github.com/aidolab/mgstudio/internal/logging"
)

// ---- fake store ----

// fakeStore is an in-memory credentials.Store with failure injection.
type fakeStore struct {
	mu  sync.Mutex
	rec *credentials.Record

	SaveErr  error
	ReadErr  error
	ClearErr error

	SaveCalls  int
	ClearCalls int
}

func (f *fakeStore) Save(ctx context.Context, rec *credentials.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SaveCalls++
	if f.SaveErr != nil {
		return f.SaveErr
	}
	r := *rec
	f.rec = &r
	return nil
}

func (f *fakeStore) Read(ctx context.Context) (*credentials.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	if f.rec == nil || f.rec.Token == "" || f.rec.UserID == "" {
		return nil, nil
	}
	r := *f.rec
	return &r, nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearCalls++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.rec = nil
	return nil
}

func (f *fakeStore) IsAuthenticated(ctx context.Context) bool {
	rec, err := f.Read(ctx)
	return err == nil && rec != nil
}

// gateStore lets a test hold a Save mid-flight so another session mutation
// can be raced against it.
type gateStore struct {
	fakeStore
	armMu   sync.Mutex
	armed   bool
	entered chan struct{}
	proceed chan struct{}
}

func (g *gateStore) Save(ctx context.Context, rec *credentials.Record) error {
	g.armMu.Lock()
	armed := g.armed
	g.armMu.Unlock()
	if armed {
		g.entered <- struct{}{}
		<-g.proceed
	}
	return g.fakeStore.Save(ctx, rec)
}

func (g *gateStore) arm() {
	g.armMu.Lock()
	g.armed = true
	g.armMu.Unlock()
}

func newTestSession(t *testing.T) (*Session, *fakeStore, *bytes.Buffer) {
	t.Helper()
	store := &fakeStore{}
	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	return New(store, logger), store, &buf
}

// ---- tests ----

func TestSession_Initialize_EmptyStore(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Initialize(context.Background())

	require.False(t, s.IsLoggedIn())
	_, ok := s.UserInfo()
	require.False(t, ok)
}

func TestSession_Initialize_RehydratesFromStore(t *testing.T) {
	s, store, _ := newTestSession(t)
	store.rec = &credentials.Record{Token: "t1", UserID: "u1", Phone: "13800000000"}

	s.Initialize(context.Background())

	require.True(t, s.IsLoggedIn())
	u, ok := s.UserInfo()
	require.True(t, ok)
	require.Equal(t, "u1", u.UserID)
	require.Equal(t, "t1", u.Token)
	require.Equal(t, "13800000000", u.Phone)
}

func TestSession_Initialize_ReadErrorMeansLoggedOut(t *testing.T) {
	s, store, buf := newTestSession(t)
	store.ReadErr = errors.New("disk gone")

	s.Initialize(context.Background())

	require.False(t, s.IsLoggedIn())
	require.Contains(t, buf.String(), "credential store read failed")
}

func TestSession_LoginThenLogout_Converges(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestSession(t)
	s.Initialize(ctx)

	s.Login(ctx, UserInfo{UserID: "u1", Token: "t1", Phone: "13800000000"})
	require.True(t, s.IsLoggedIn())
	require.True(t, store.IsAuthenticated(ctx), "memory and store must agree after login")

	s.Logout(ctx)
	require.False(t, s.IsLoggedIn())
	require.False(t, store.IsAuthenticated(ctx), "memory and store must agree after logout")
}

func TestSession_Logout_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestSession(t)
	s.Initialize(ctx)

	s.Login(ctx, UserInfo{UserID: "u1", Token: "t1"})
	s.Logout(ctx)
	s.Logout(ctx)

	require.False(t, s.IsLoggedIn())
	require.False(t, store.IsAuthenticated(ctx))
	require.Equal(t, 2, store.ClearCalls, "each logout clears; both must succeed")
}

func TestSession_UpdateUserInfo_MergeSemantics(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestSession(t)
	s.Initialize(ctx)
	s.Login(ctx, UserInfo{UserID: "u1", Token: "t1", Nickname: "A"})

	nick := "B"
	s.UpdateUserInfo(ctx, ProfileUpdate{Nickname: &nick})

	u, ok := s.UserInfo()
	require.True(t, ok)
	require.Equal(t, "u1", u.UserID, "identity must be unaffected")
	require.Equal(t, "t1", u.Token, "identity must be unaffected")
	require.Equal(t, "B", u.Nickname, "provided key must overwrite")

	// Merged result is persisted.
	rec, err := store.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "B", rec.Nickname)
}

func TestSession_UpdateUserInfo_NoOpWhenLoggedOut(t *testing.T) {
	ctx := context.Background()
	s, store, buf := newTestSession(t)
	s.Initialize(ctx)

	nick := "X"
	s.UpdateUserInfo(ctx, ProfileUpdate{Nickname: &nick})

	require.False(t, s.IsLoggedIn())
	_, ok := s.UserInfo()
	require.False(t, ok)
	require.Zero(t, store.SaveCalls, "no persistence on a logged-out update")
	require.Contains(t, buf.String(), "update ignored")
}

func TestSession_UpdateUserInfo_LogoutDuringSaveWins(t *testing.T) {
	ctx := context.Background()
	store := &gateStore{
		entered: make(chan struct{}, 1),
		proceed: make(chan struct{}),
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	s := New(store, logger)
	s.Initialize(ctx)

	s.Login(ctx, UserInfo{UserID: "u1", Token: "t1", Nickname: "A"})
	store.arm()

	nick := "B"
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.UpdateUserInfo(ctx, ProfileUpdate{Nickname: &nick})
	}()

	// The update now holds the session lock with its save in flight; a
	// logout arriving here must land after it and clear the store.
	<-store.entered
	go func() {
		defer wg.Done()
		s.Logout(ctx)
	}()
	close(store.proceed)
	wg.Wait()

	require.False(t, s.IsLoggedIn())
	rec, err := store.Read(ctx)
	require.NoError(t, err)
	require.Nil(t, rec, "the update must not re-persist credentials past the logout")
}

func TestSession_Login_StoreFailureKeepsInMemorySession(t *testing.T) {
	ctx := context.Background()
	s, store, buf := newTestSession(t)
	s.Initialize(ctx)
	store.SaveErr = errors.New("quota exceeded")

	s.Login(ctx, UserInfo{UserID: "u1", Token: "t1"})

	require.True(t, s.IsLoggedIn(), "session keeps operating in memory")
	require.Contains(t, buf.String(), "in-memory only")
}

func TestSession_ConvergenceOverRandomSequences(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestSession(t)
	s.Initialize(ctx)

	nick := "n"
	ops := []func(){
		func() { s.Login(ctx, UserInfo{UserID: "u1", Token: "t1"}) },
		func() { s.Logout(ctx) },
		func() { s.UpdateUserInfo(ctx, ProfileUpdate{Nickname: &nick}) },
		func() { s.Login(ctx, UserInfo{UserID: "u2", Token: "t2"}) },
		func() { s.Logout(ctx) },
		func() { s.Logout(ctx) },
		func() { s.UpdateUserInfo(ctx, ProfileUpdate{Nickname: &nick}) },
		func() { s.Login(ctx, UserInfo{UserID: "u3", Token: "t3"}) },
	}
	for _, op := range ops {
		op()
		require.Equal(t, store.IsAuthenticated(ctx), s.IsLoggedIn(),
			"memory and store must agree after every operation")
	}
}

func TestBridge_SignalForcesLogout(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestSession(t)
	s.Initialize(ctx)
	s.Login(ctx, UserInfo{UserID: "u1", Token: "t1"})

	sig := authsignal.New()
	bridge := InstallBridge(sig, s)
	defer bridge.Close()

	sig.Broadcast()

	require.False(t, s.IsLoggedIn())
	require.False(t, store.IsAuthenticated(ctx))

	// Repeated broadcasts converge to the same state.
	sig.Broadcast()
	require.False(t, s.IsLoggedIn())
}

func TestBridge_ClosedBridgeIgnoresSignal(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	s.Initialize(ctx)
	s.Login(ctx, UserInfo{UserID: "u1", Token: "t1"})

	sig := authsignal.New()
	bridge := InstallBridge(sig, s)
	bridge.Close()

	sig.Broadcast()
	require.True(t, s.IsLoggedIn(), "a removed bridge must not act on the signal")
}
