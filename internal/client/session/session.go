// Package session holds the in-memory, UI-facing view of the login state and
// the current user's profile. It is the single writer of the credential
// store: every mutation persists first and mirrors into memory second, so the
// two layers stay convergent even if the process dies between the steps (the
// worst case is repaired by the next Initialize). Mutations hold one mutex
// across both steps, so a logout arriving on the 401 broadcast path is
// serialized against an in-flight profile save and lands after it.
package session

import (
	"context"
	"sync"

	"github.com/aidolab/mgstudio/internal/client/credentials"
	"github.com/aidolab/mgstudio/internal/logging"
)

// UserInfo is the profile of the logged-in user. It is a superset of the
// persisted credential record; identity fields (UserID, Token) change only
// through Login.
type UserInfo struct {
	UserID   string
	Token    string
	Phone    string
	Nickname string
	Avatar   string
}

// ProfileUpdate is a shallow partial update: nil fields keep their current
// value, non-nil fields overwrite.
type ProfileUpdate struct {
	Phone    *string
	Nickname *string
	Avatar   *string
}

// Session is the authoritative in-memory session state. Created once by the
// application composition root and kept for the process lifetime.
//
// Storage failures are non-fatal by design: the session logs a warning and
// keeps operating on the in-memory state for the rest of the process.
type Session struct {
	store  credentials.Store
	logger logging.Logger

	mu       sync.Mutex
	loggedIn bool
	user     *UserInfo
}

// New constructs a Session over the given credential store. Call Initialize
// before reading session state.
func New(store credentials.Store, logger logging.Logger) *Session {
	return &Session{store: store, logger: logger.With("component", "session")}
}

// Initialize syncs the in-memory state from the persisted credential record.
// It must run once at startup before any reads; calling it again re-syncs
// and is harmless.
func (s *Session) Initialize(ctx context.Context) {
	rec, err := s.store.Read(ctx)
	if err != nil {
		s.logger.Warn(ctx, "credential store read failed, starting logged out", "error", err.Error())
		rec = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec == nil {
		s.loggedIn = false
		s.user = nil
		return
	}
	s.loggedIn = true
	s.user = &UserInfo{
		UserID:   rec.UserID,
		Token:    rec.Token,
		Phone:    rec.Phone,
		Nickname: rec.Nickname,
		Avatar:   rec.Avatar,
	}
}

// Login persists the credential record and then marks the session logged in
// with the given profile. Caller contract: user.Token and user.UserID are
// non-empty; formats are not re-validated here.
func (s *Session) Login(ctx context.Context, user UserInfo) {
	rec := &credentials.Record{
		Token:    user.Token,
		UserID:   user.UserID,
		Phone:    user.Phone,
		Nickname: user.Nickname,
		Avatar:   user.Avatar,
	}
	s.mu.Lock()
	// Persist first; only then mirror into memory.
	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.Warn(ctx, "credential store save failed, session is in-memory only", "error", err.Error())
	}
	s.loggedIn = true
	u := user
	s.user = &u
	s.mu.Unlock()

	s.logger.Info(ctx, "logged in", "user_id", user.UserID)
}

// Logout clears the persisted record and then the in-memory state. Safe to
// call at any time, including when already logged out.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn(ctx, "credential store clear failed", "error", err.Error())
	}
	wasLoggedIn := s.loggedIn
	s.loggedIn = false
	s.user = nil
	s.mu.Unlock()

	if wasLoggedIn {
		s.logger.Info(ctx, "logged out")
	}
}

// UpdateUserInfo merges upd into the current profile, persists the merged
// record, and updates the in-memory state. When logged out it warns and does
// nothing.
func (s *Session) UpdateUserInfo(ctx context.Context, upd ProfileUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loggedIn || s.user == nil {
		s.logger.Warn(ctx, "update ignored: not logged in")
		return
	}

	merged := *s.user
	if upd.Phone != nil {
		merged.Phone = *upd.Phone
	}
	if upd.Nickname != nil {
		merged.Nickname = *upd.Nickname
	}
	if upd.Avatar != nil {
		merged.Avatar = *upd.Avatar
	}

	// The mutex is held across the save, so a concurrent logout cannot
	// interleave: it runs after this update and its Clear wins.
	rec := &credentials.Record{
		Token:    merged.Token,
		UserID:   merged.UserID,
		Phone:    merged.Phone,
		Nickname: merged.Nickname,
		Avatar:   merged.Avatar,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.Warn(ctx, "credential store save failed, profile update is in-memory only", "error", err.Error())
	}

	s.user = &merged
}

// IsLoggedIn reports the current login state.
func (s *Session) IsLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// UserInfo returns a copy of the current profile; ok is false when logged
// out.
func (s *Session) UserInfo() (UserInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn || s.user == nil {
		return UserInfo{}, false
	}
	return *s.user, true
}
